package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/internal/http"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// DevicesClient implements ninja.DevicesClient.
type DevicesClient struct {
	httpClient *http.Client
	converter  *ninja.TimestampConverter
	logger     ninja.Logger
}

// NewDevicesClient creates a new devices client.
func NewDevicesClient(httpClient *http.Client, converter *ninja.TimestampConverter, logger ninja.Logger) *DevicesClient {
	return &DevicesClient{
		httpClient: httpClient,
		converter:  converter,
		logger:     logger,
	}
}

// List implements ninja.DevicesClient.List.
func (c *DevicesClient) List(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	resp, err := c.httpClient.Get(ctx, constants.DevicesPath, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	return decodeRecords(resp.Body, c.converter)
}

// ListAll implements ninja.DevicesClient.ListAll.
func (c *DevicesClient) ListAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	return ninja.FetchAllOffset(ctx, c.pageFunc(params), paginationOptions(params, c.logger))
}

// IterAll implements ninja.DevicesClient.IterAll.
func (c *DevicesClient) IterAll(ctx context.Context, params *ninja.QueryParams) *ninja.OffsetIterator {
	return ninja.NewOffsetIterator(ctx, c.pageFunc(params), paginationOptions(params, c.logger))
}

// Get implements ninja.DevicesClient.Get.
func (c *DevicesClient) Get(ctx context.Context, deviceID int) (ninja.Record, error) {
	path := constants.DevicesPath + "/" + strconv.Itoa(deviceID)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting device: %w", err)
	}

	return decodeRecord(resp.Body, c.converter)
}

// Update implements ninja.DevicesClient.Update.
func (c *DevicesClient) Update(ctx context.Context, deviceID int, device ninja.Record) (ninja.Record, error) {
	path := constants.DevicesPath + "/" + strconv.Itoa(deviceID)

	resp, err := c.httpClient.Patch(ctx, path, device)
	if err != nil {
		return nil, fmt.Errorf("updating device: %w", err)
	}

	return decodeRecord(resp.Body, c.converter)
}

// Search implements ninja.DevicesClient.Search.
func (c *DevicesClient) Search(ctx context.Context, params *ninja.QueryParams) (*ninja.QueryResult, error) {
	if params == nil || params.Query == "" {
		return nil, ninja.ErrEmptySearchQuery
	}

	resp, err := c.httpClient.Get(ctx, constants.DeviceSearchPath, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("searching devices: %w", err)
	}

	return decodeQueryResult(resp.Body, c.converter)
}

// SearchAll implements ninja.DevicesClient.SearchAll.
func (c *DevicesClient) SearchAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	if params == nil || params.Query == "" {
		return nil, ninja.ErrEmptySearchQuery
	}

	return ninja.FetchAllCursor(ctx, c.searchPageFunc(params), paginationOptions(params, c.logger))
}

// IterSearch implements ninja.DevicesClient.IterSearch.
func (c *DevicesClient) IterSearch(ctx context.Context, params *ninja.QueryParams) *ninja.CursorIterator {
	return ninja.NewCursorIterator(ctx, c.searchPageFunc(params), paginationOptions(params, c.logger))
}

// Reboot implements ninja.DevicesClient.Reboot. mode is NORMAL or FORCED.
func (c *DevicesClient) Reboot(ctx context.Context, deviceID int, mode string) error {
	path := constants.DevicesPath + "/" + strconv.Itoa(deviceID) + "/reboot/" + strings.ToUpper(mode)

	_, err := c.httpClient.Post(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("rebooting device: %w", err)
	}

	return nil
}

// Approve implements ninja.DevicesClient.Approve.
func (c *DevicesClient) Approve(ctx context.Context, mode ninja.DeviceApproval, deviceIDs []int) error {
	path := constants.DevicesPath + "/approval/" + string(mode)

	body := map[string]interface{}{
		"devices": deviceIDs,
	}

	_, err := c.httpClient.Post(ctx, path, body)
	if err != nil {
		return fmt.Errorf("updating device approval: %w", err)
	}

	return nil
}

// SetMaintenance implements ninja.DevicesClient.SetMaintenance.
func (c *DevicesClient) SetMaintenance(ctx context.Context, deviceID int, req *ninja.MaintenanceRequest) error {
	path := constants.DevicesPath + "/" + strconv.Itoa(deviceID) + "/maintenance"

	_, err := c.httpClient.Put(ctx, path, req)
	if err != nil {
		return fmt.Errorf("setting device maintenance: %w", err)
	}

	return nil
}

// CancelMaintenance implements ninja.DevicesClient.CancelMaintenance.
func (c *DevicesClient) CancelMaintenance(ctx context.Context, deviceID int) error {
	path := constants.DevicesPath + "/" + strconv.Itoa(deviceID) + "/maintenance"

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("canceling device maintenance: %w", err)
	}

	return nil
}

// pageFunc adapts List to the offset pagination contract.
func (c *DevicesClient) pageFunc(params *ninja.QueryParams) ninja.OffsetPageFunc {
	return func(ctx context.Context, pageSize int, after string) ([]ninja.Record, error) {
		page := params.Clone()
		page.PageSize = pageSize
		page.After = after

		return c.List(ctx, page)
	}
}

// searchPageFunc adapts Search to the cursor pagination contract.
func (c *DevicesClient) searchPageFunc(params *ninja.QueryParams) ninja.CursorPageFunc {
	return func(ctx context.Context, pageSize int, cursor string) (*ninja.QueryResult, error) {
		page := params.Clone()
		page.PageSize = pageSize
		page.Cursor = cursor

		return c.Search(ctx, page)
	}
}
