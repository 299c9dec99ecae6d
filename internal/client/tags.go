package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/internal/http"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// TagsClient implements ninja.TagsClient.
type TagsClient struct {
	httpClient *http.Client
	converter  *ninja.TimestampConverter
	logger     ninja.Logger
}

// NewTagsClient creates a new tags client.
func NewTagsClient(httpClient *http.Client, converter *ninja.TimestampConverter, logger ninja.Logger) *TagsClient {
	return &TagsClient{
		httpClient: httpClient,
		converter:  converter,
		logger:     logger,
	}
}

// List implements ninja.TagsClient.List.
func (c *TagsClient) List(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	resp, err := c.httpClient.Get(ctx, constants.TagsPath, params.ToValues())
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}

	return decodeRecords(resp.Body, c.converter)
}

// ListAll implements ninja.TagsClient.ListAll.
func (c *TagsClient) ListAll(ctx context.Context, params *ninja.QueryParams) ([]ninja.Record, error) {
	return ninja.FetchAllOffset(ctx, c.pageFunc(params), paginationOptions(params, c.logger))
}

// IterAll implements ninja.TagsClient.IterAll.
func (c *TagsClient) IterAll(ctx context.Context, params *ninja.QueryParams) *ninja.OffsetIterator {
	return ninja.NewOffsetIterator(ctx, c.pageFunc(params), paginationOptions(params, c.logger))
}

// Create implements ninja.TagsClient.Create.
func (c *TagsClient) Create(ctx context.Context, tag ninja.Record) (ninja.Record, error) {
	if name, ok := tag["name"].(string); !ok || name == "" {
		return nil, ninja.ErrTagNameRequired
	}

	resp, err := c.httpClient.Post(ctx, constants.TagsPath, tag)
	if err != nil {
		return nil, fmt.Errorf("creating tag: %w", err)
	}

	return decodeRecord(resp.Body, c.converter)
}

// Delete implements ninja.TagsClient.Delete.
func (c *TagsClient) Delete(ctx context.Context, tagID int) error {
	path := constants.TagsPath + "/" + strconv.Itoa(tagID)

	_, err := c.httpClient.Delete(ctx, path)
	if err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	return nil
}

// pageFunc adapts List to the offset pagination contract.
func (c *TagsClient) pageFunc(params *ninja.QueryParams) ninja.OffsetPageFunc {
	return func(ctx context.Context, pageSize int, after string) ([]ninja.Record, error) {
		page := params.Clone()
		page.PageSize = pageSize
		page.After = after

		return c.List(ctx, page)
	}
}
