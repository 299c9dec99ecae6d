package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/internal/http"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// OrganizationsClient implements ninja.OrganizationsClient.
type OrganizationsClient struct {
	httpClient *http.Client
	converter  *ninja.TimestampConverter
	logger     ninja.Logger
}

// NewOrganizationsClient creates a new organizations client.
func NewOrganizationsClient(httpClient *http.Client, converter *ninja.TimestampConverter, logger ninja.Logger) *OrganizationsClient {
	return &OrganizationsClient{
		httpClient: httpClient,
		converter:  converter,
		logger:     logger,
	}
}

// List implements ninja.OrganizationsClient.List.
func (c *OrganizationsClient) List(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	resp, err := c.httpClient.Get(ctx, constants.OrganizationsPath, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}

	return decodeRecords(resp.Body, c.converter)
}

// ListAll implements ninja.OrganizationsClient.ListAll.
func (c *OrganizationsClient) ListAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	return ninja.FetchAllOffset(ctx, c.pageFunc(params), paginationOptions(params, c.logger))
}

// IterAll implements ninja.OrganizationsClient.IterAll.
func (c *OrganizationsClient) IterAll(ctx context.Context, params *ninja.QueryParams) *ninja.OffsetIterator {
	return ninja.NewOffsetIterator(ctx, c.pageFunc(params), paginationOptions(params, c.logger))
}

// Get implements ninja.OrganizationsClient.Get.
func (c *OrganizationsClient) Get(ctx context.Context, organizationID int) (ninja.Record, error) {
	path := constants.OrganizationsPath + "/" + strconv.Itoa(organizationID)

	resp, err := c.httpClient.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("getting organization: %w", err)
	}

	return decodeRecord(resp.Body, c.converter)
}

// Create implements ninja.OrganizationsClient.Create.
func (c *OrganizationsClient) Create(ctx context.Context, organization ninja.Record) (ninja.Record, error) {
	resp, err := c.httpClient.Post(ctx, constants.OrganizationsPath, organization)
	if err != nil {
		return nil, fmt.Errorf("creating organization: %w", err)
	}

	return decodeRecord(resp.Body, c.converter)
}

// Update implements ninja.OrganizationsClient.Update.
func (c *OrganizationsClient) Update(ctx context.Context, organizationID int, organization ninja.Record) (ninja.Record, error) {
	path := constants.OrganizationsPath + "/" + strconv.Itoa(organizationID)

	resp, err := c.httpClient.Patch(ctx, path, organization)
	if err != nil {
		return nil, fmt.Errorf("updating organization: %w", err)
	}

	return decodeRecord(resp.Body, c.converter)
}

// Delete implements ninja.OrganizationsClient.Delete.
func (c *OrganizationsClient) Delete(ctx context.Context, organizationID int) error {
	path := constants.OrganizationsPath + "/" + strconv.Itoa(organizationID)

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting organization: %w", err)
	}

	return nil
}

// pageFunc adapts List to the offset pagination contract.
func (c *OrganizationsClient) pageFunc(params *ninja.QueryParams) ninja.OffsetPageFunc {
	return func(ctx context.Context, pageSize int, after string) ([]ninja.Record, error) {
		page := params.Clone()
		page.PageSize = pageSize
		page.After = after

		return c.List(ctx, page)
	}
}
