package client

import (
	"context"
	"fmt"

	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/internal/http"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// Named query endpoints under /v2/queries.
const (
	queryWindowsServices = "windows-services"
	queryCustomFields    = "custom-fields"
	queryOSPatches       = "os-patches"
)

// QueriesClient implements ninja.QueriesClient. Every query endpoint shares
// the cursor envelope, so the named methods are thin wrappers over Query.
type QueriesClient struct {
	httpClient *http.Client
	converter  *ninja.TimestampConverter
	logger     ninja.Logger
}

// NewQueriesClient creates a new queries client.
func NewQueriesClient(httpClient *http.Client, converter *ninja.TimestampConverter, logger ninja.Logger) *QueriesClient {
	return &QueriesClient{
		httpClient: httpClient,
		converter:  converter,
		logger:     logger,
	}
}

// Query implements ninja.QueriesClient.Query.
func (c *QueriesClient) Query(ctx context.Context, name string, params *ninja.QueryParams) (*ninja.QueryResult, error) {
	path := constants.QueriesPathPrefix + "/" + name

	resp, err := c.httpClient.Get(ctx, path, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", name, err)
	}

	return decodeQueryResult(resp.Body, c.converter)
}

// WindowsServices implements ninja.QueriesClient.WindowsServices.
func (c *QueriesClient) WindowsServices(ctx context.Context, params *ninja.QueryParams) (*ninja.QueryResult, error) {
	return c.Query(ctx, queryWindowsServices, params)
}

// AllWindowsServices implements ninja.QueriesClient.AllWindowsServices.
func (c *QueriesClient) AllWindowsServices(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	return ninja.FetchAllCursor(ctx, c.pageFunc(queryWindowsServices, params), paginationOptions(params, c.logger))
}

// IterWindowsServices implements ninja.QueriesClient.IterWindowsServices.
func (c *QueriesClient) IterWindowsServices(ctx context.Context, params *ninja.QueryParams) *ninja.CursorIterator {
	return ninja.NewCursorIterator(ctx, c.pageFunc(queryWindowsServices, params), paginationOptions(params, c.logger))
}

// CustomFields implements ninja.QueriesClient.CustomFields.
func (c *QueriesClient) CustomFields(ctx context.Context, params *ninja.QueryParams) (*ninja.QueryResult, error) {
	return c.Query(ctx, queryCustomFields, params)
}

// AllCustomFields implements ninja.QueriesClient.AllCustomFields.
func (c *QueriesClient) AllCustomFields(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	return ninja.FetchAllCursor(ctx, c.pageFunc(queryCustomFields, params), paginationOptions(params, c.logger))
}

// IterCustomFields implements ninja.QueriesClient.IterCustomFields.
func (c *QueriesClient) IterCustomFields(ctx context.Context, params *ninja.QueryParams) *ninja.CursorIterator {
	return ninja.NewCursorIterator(ctx, c.pageFunc(queryCustomFields, params), paginationOptions(params, c.logger))
}

// OSPatches implements ninja.QueriesClient.OSPatches.
func (c *QueriesClient) OSPatches(ctx context.Context, params *ninja.QueryParams) (*ninja.QueryResult, error) {
	return c.Query(ctx, queryOSPatches, params)
}

// AllOSPatches implements ninja.QueriesClient.AllOSPatches.
func (c *QueriesClient) AllOSPatches(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	return ninja.FetchAllCursor(ctx, c.pageFunc(queryOSPatches, params), paginationOptions(params, c.logger))
}

// IterOSPatches implements ninja.QueriesClient.IterOSPatches.
func (c *QueriesClient) IterOSPatches(ctx context.Context, params *ninja.QueryParams) *ninja.CursorIterator {
	return ninja.NewCursorIterator(ctx, c.pageFunc(queryOSPatches, params), paginationOptions(params, c.logger))
}

// pageFunc adapts Query to the cursor pagination contract.
func (c *QueriesClient) pageFunc(name string, params *ninja.QueryParams) ninja.CursorPageFunc {
	return func(ctx context.Context, pageSize int, cursor string) (*ninja.QueryResult, error) {
		page := params.Clone()
		page.PageSize = pageSize
		page.Cursor = cursor

		return c.Query(ctx, name, page)
	}
}
