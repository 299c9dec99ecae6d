package ninja

import (
	"context"
	"errors"
	"fmt"
)

// DefaultPageSize is used by pagination helpers when no page size is set.
const DefaultPageSize = 100

// OffsetPageFunc fetches one page from an offset-paginated endpoint. after is
// the id of the last record on the previous page, "" for the first page.
type OffsetPageFunc func(ctx context.Context, pageSize int, after string) ([]Record, error)

// CursorPageFunc fetches one page from a cursor-paginated endpoint. cursor is
// the opaque cursor name from the previous envelope, "" for the first page.
type CursorPageFunc func(ctx context.Context, pageSize int, cursor string) (*QueryResult, error)

// PaginationOptions configures pagination helpers.
type PaginationOptions struct {
	// PageSize is the per-request page size. Zero means DefaultPageSize.
	PageSize int
	// MaxPages caps the number of requests. Zero means no limit.
	MaxPages int
	// Logger, when set, receives warnings about short-circuited pagination
	// (e.g. records without an id field).
	Logger Logger
}

// DefaultPaginationOptions returns options with the default page size and no
// page cap.
func DefaultPaginationOptions() PaginationOptions {
	return PaginationOptions{PageSize: DefaultPageSize}
}

func (o PaginationOptions) pageSize() int {
	if o.PageSize > 0 {
		return o.PageSize
	}

	return DefaultPageSize
}

// PageResult carries one page of records through a streaming channel.
type PageResult struct {
	Records []Record
	Err     error
}

// OffsetIterator lazily walks an offset-paginated endpoint record by record.
// Pages are fetched on demand: consuming one record costs at most one
// request. Not safe for concurrent use.
type OffsetIterator struct {
	ctx    context.Context
	fetch  OffsetPageFunc
	opts   PaginationOptions
	buffer []Record
	index  int
	after  string
	pages  int
	done   bool
}

// NewOffsetIterator creates an iterator over an offset-paginated endpoint.
func NewOffsetIterator(ctx context.Context, fetch OffsetPageFunc, opts PaginationOptions) *OffsetIterator {
	return &OffsetIterator{
		ctx:   ctx,
		fetch: fetch,
		opts:  opts,
	}
}

// HasNext reports whether another record may be available. It is true before
// the first fetch; a false return is definitive.
func (it *OffsetIterator) HasNext() bool {
	return it.index < len(it.buffer) || !it.done
}

// Next returns the next record, fetching the next page when the buffered one
// is exhausted. It returns ErrNoMoreItems past the end.
func (it *OffsetIterator) Next() (Record, error) {
	for it.index >= len(it.buffer) {
		if it.done {
			return nil, ErrNoMoreItems
		}

		if err := it.fetchPage(); err != nil {
			return nil, err
		}
	}

	record := it.buffer[it.index]
	it.index++

	return record, nil
}

func (it *OffsetIterator) fetchPage() error {
	if it.fetch == nil {
		it.done = true

		return ErrPageFuncRequired
	}

	if err := it.ctx.Err(); err != nil {
		it.done = true

		return fmt.Errorf("fetching page: %w", err)
	}

	pageSize := it.opts.pageSize()

	records, err := it.fetch(it.ctx, pageSize, it.after)
	if err != nil {
		it.done = true

		return fmt.Errorf("fetching page: %w", err)
	}

	it.buffer = records
	it.index = 0
	it.pages++

	if len(records) == 0 || len(records) < pageSize {
		it.done = true

		return nil
	}

	if it.opts.MaxPages > 0 && it.pages >= it.opts.MaxPages {
		it.done = true

		return nil
	}

	id, ok := RecordID(records[len(records)-1])
	if !ok {
		// Without an id there is no cursor for the next page. Return what
		// we have rather than failing the whole listing.
		if it.opts.Logger != nil {
			it.opts.Logger.Warn("pagination stopped: last record has no id field", map[string]interface{}{
				"records": len(records),
			})
		}

		it.done = true

		return nil
	}

	it.after = FormatAfter(id)

	return nil
}

// All consumes the iterator and returns the remaining records.
func (it *OffsetIterator) All() ([]Record, error) {
	var records []Record

	for {
		record, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return records, nil
			}

			return nil, err
		}

		records = append(records, record)
	}
}

// ForEach applies fn to each remaining record, stopping on the first error.
func (it *OffsetIterator) ForEach(fn func(Record) error) error {
	for {
		record, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return nil
			}

			return err
		}

		if err := fn(record); err != nil {
			return err
		}
	}
}

// CursorIterator lazily walks a cursor-paginated endpoint record by record.
// Not safe for concurrent use.
type CursorIterator struct {
	ctx    context.Context
	fetch  CursorPageFunc
	opts   PaginationOptions
	buffer []Record
	index  int
	cursor string
	pages  int
	done   bool
}

// NewCursorIterator creates an iterator over a cursor-paginated endpoint.
func NewCursorIterator(ctx context.Context, fetch CursorPageFunc, opts PaginationOptions) *CursorIterator {
	return &CursorIterator{
		ctx:   ctx,
		fetch: fetch,
		opts:  opts,
	}
}

// HasNext reports whether another record may be available. It is true before
// the first fetch; a false return is definitive.
func (it *CursorIterator) HasNext() bool {
	return it.index < len(it.buffer) || !it.done
}

// Next returns the next record, fetching pages on demand. An empty page with
// a live cursor does not end iteration; fetching continues until records
// arrive or the endpoint stops returning a cursor.
func (it *CursorIterator) Next() (Record, error) {
	for it.index >= len(it.buffer) {
		if it.done {
			return nil, ErrNoMoreItems
		}

		if err := it.fetchPage(); err != nil {
			return nil, err
		}
	}

	record := it.buffer[it.index]
	it.index++

	return record, nil
}

func (it *CursorIterator) fetchPage() error {
	if it.fetch == nil {
		it.done = true

		return ErrPageFuncRequired
	}

	if err := it.ctx.Err(); err != nil {
		it.done = true

		return fmt.Errorf("fetching page: %w", err)
	}

	result, err := it.fetch(it.ctx, it.opts.pageSize(), it.cursor)
	if err != nil {
		it.done = true

		return fmt.Errorf("fetching page: %w", err)
	}

	if result == nil || !result.HasResultsKey() {
		// Malformed envelope. Treat as the end of the result set.
		if it.opts.Logger != nil {
			it.opts.Logger.Warn("pagination stopped: response has no results key", nil)
		}

		it.buffer = nil
		it.index = 0
		it.done = true

		return nil
	}

	it.buffer = result.Results
	it.index = 0
	it.pages++

	next := result.NextCursor()
	if next == "" {
		it.done = true

		return nil
	}

	if it.opts.MaxPages > 0 && it.pages >= it.opts.MaxPages {
		it.done = true

		return nil
	}

	it.cursor = next

	return nil
}

// All consumes the iterator and returns the remaining records.
func (it *CursorIterator) All() ([]Record, error) {
	var records []Record

	for {
		record, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return records, nil
			}

			return nil, err
		}

		records = append(records, record)
	}
}

// ForEach applies fn to each remaining record, stopping on the first error.
func (it *CursorIterator) ForEach(fn func(Record) error) error {
	for {
		record, err := it.Next()
		if err != nil {
			if errors.Is(err, ErrNoMoreItems) {
				return nil
			}

			return err
		}

		if err := fn(record); err != nil {
			return err
		}
	}
}

// FetchAllOffset eagerly collects every record from an offset-paginated
// endpoint.
func FetchAllOffset(ctx context.Context, fetch OffsetPageFunc, opts PaginationOptions) ([]Record, error) {
	return NewOffsetIterator(ctx, fetch, opts).All()
}

// FetchAllCursor eagerly collects every record from a cursor-paginated
// endpoint.
func FetchAllCursor(ctx context.Context, fetch CursorPageFunc, opts PaginationOptions) ([]Record, error) {
	return NewCursorIterator(ctx, fetch, opts).All()
}

// StreamOffsetPages fetches pages in a goroutine and delivers them on the
// returned channel. The channel is closed when pagination ends; a PageResult
// with Err set is the final message on failure. Cancel ctx to stop early.
func StreamOffsetPages(ctx context.Context, fetch OffsetPageFunc, opts PaginationOptions) <-chan PageResult {
	results := make(chan PageResult)

	go func() {
		defer close(results)

		it := NewOffsetIterator(ctx, fetch, opts)

		for !it.done {
			if err := it.fetchPage(); err != nil {
				sendPage(ctx, results, PageResult{Err: err})

				return
			}

			if len(it.buffer) > 0 {
				if !sendPage(ctx, results, PageResult{Records: it.buffer}) {
					return
				}
			}

			it.buffer = nil
		}
	}()

	return results
}

// StreamCursorPages fetches pages in a goroutine and delivers them on the
// returned channel. The channel is closed when pagination ends; a PageResult
// with Err set is the final message on failure. Cancel ctx to stop early.
func StreamCursorPages(ctx context.Context, fetch CursorPageFunc, opts PaginationOptions) <-chan PageResult {
	results := make(chan PageResult)

	go func() {
		defer close(results)

		it := NewCursorIterator(ctx, fetch, opts)

		for !it.done {
			if err := it.fetchPage(); err != nil {
				sendPage(ctx, results, PageResult{Err: err})

				return
			}

			if len(it.buffer) > 0 {
				if !sendPage(ctx, results, PageResult{Records: it.buffer}) {
					return
				}
			}

			it.buffer = nil
		}
	}()

	return results
}

func sendPage(ctx context.Context, ch chan<- PageResult, result PageResult) bool {
	select {
	case ch <- result:
		return true
	case <-ctx.Done():
		return false
	}
}
