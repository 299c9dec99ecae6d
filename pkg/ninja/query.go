package ninja

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams represents query parameters accepted by NinjaRMM list and query
// endpoints. Zero values are omitted from the encoded query string.
type QueryParams struct {
	// PageSize is the page size for paginated endpoints ("pageSize").
	PageSize int
	// After is the offset-pagination cursor: the id of the last record on
	// the previous page, in canonical integer form ("after").
	After string
	// Cursor is the opaque cursor name for cursor-paginated endpoints
	// ("cursor").
	Cursor string
	// OrgFilter filters by organization ("of", e.g. "org = 123").
	OrgFilter string
	// DeviceFilter filters devices ("df", e.g. "class = WINDOWS_WORKSTATION").
	DeviceFilter string
	// Query is the free-text search term for /v2/devices/search ("q").
	Query string
	// Name filters query-endpoint results by name ("name").
	Name string
	// State filters query-endpoint results by state ("state").
	State string
	// Expand names related objects to inline ("expand", comma-joined).
	Expand []string
	// IncludeBackupUsage includes backup usage data on device listings
	// ("includeBackupUsage").
	IncludeBackupUsage bool
	// Extra holds endpoint-specific parameters not covered by a field above.
	Extra map[string]string
}

// NewQueryParams creates an empty QueryParams.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Extra: make(map[string]string),
	}
}

// WithPageSize sets the page size.
func (q *QueryParams) WithPageSize(size int) *QueryParams {
	q.PageSize = size

	return q
}

// WithAfter sets the offset cursor to a record id.
func (q *QueryParams) WithAfter(after string) *QueryParams {
	q.After = after

	return q
}

// WithCursor sets the opaque cursor name.
func (q *QueryParams) WithCursor(cursor string) *QueryParams {
	q.Cursor = cursor

	return q
}

// WithOrgFilter sets the organization filter.
func (q *QueryParams) WithOrgFilter(filter string) *QueryParams {
	q.OrgFilter = filter

	return q
}

// WithDeviceFilter sets the device filter.
func (q *QueryParams) WithDeviceFilter(filter string) *QueryParams {
	q.DeviceFilter = filter

	return q
}

// WithQuery sets the free-text search term.
func (q *QueryParams) WithQuery(query string) *QueryParams {
	q.Query = query

	return q
}

// WithName sets the name filter.
func (q *QueryParams) WithName(name string) *QueryParams {
	q.Name = name

	return q
}

// WithState sets the state filter.
func (q *QueryParams) WithState(state string) *QueryParams {
	q.State = state

	return q
}

// WithExpand appends related objects to expand.
func (q *QueryParams) WithExpand(names ...string) *QueryParams {
	q.Expand = append(q.Expand, names...)

	return q
}

// WithBackupUsage includes backup usage data.
func (q *QueryParams) WithBackupUsage() *QueryParams {
	q.IncludeBackupUsage = true

	return q
}

// WithExtra sets an arbitrary query parameter.
func (q *QueryParams) WithExtra(key, value string) *QueryParams {
	if q.Extra == nil {
		q.Extra = make(map[string]string)
	}

	q.Extra[key] = value

	return q
}

// ToValues converts the parameters to url.Values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	if q.After != "" {
		values.Set("after", q.After)
	}

	if q.Cursor != "" {
		values.Set("cursor", q.Cursor)
	}

	if q.OrgFilter != "" {
		values.Set("of", q.OrgFilter)
	}

	if q.DeviceFilter != "" {
		values.Set("df", q.DeviceFilter)
	}

	if q.Query != "" {
		values.Set("q", q.Query)
	}

	if q.Name != "" {
		values.Set("name", q.Name)
	}

	if q.State != "" {
		values.Set("state", q.State)
	}

	if len(q.Expand) > 0 {
		values.Set("expand", strings.Join(q.Expand, ","))
	}

	if q.IncludeBackupUsage {
		values.Set("includeBackupUsage", "true")
	}

	for key, value := range q.Extra {
		values.Set(key, value)
	}

	return values
}

// Clone returns a copy safe to mutate independently. Pagination helpers use
// it to thread cursors without touching caller-owned params.
func (q *QueryParams) Clone() *QueryParams {
	if q == nil {
		return NewQueryParams()
	}

	clone := *q
	clone.Expand = append([]string(nil), q.Expand...)

	clone.Extra = make(map[string]string, len(q.Extra))
	for key, value := range q.Extra {
		clone.Extra[key] = value
	}

	return &clone
}

// FormatAfter converts a numeric record id to the canonical "after" value.
// Ids decode as float64; integral values render without an exponent or
// fractional part.
func FormatAfter(id float64) string {
	return strconv.FormatFloat(id, 'f', -1, 64)
}
