package ninja

import "encoding/json"

// Record is a single decoded API object. The NinjaRMM API is schemaless from
// the client's perspective: device and organization payloads vary by node
// class and tenant configuration, so records are exposed as generic maps
// rather than fixed structs. Timestamp normalization and pagination only rely
// on well-known keys ("id", epoch timestamp fields).
type Record = map[string]interface{}

// RecordID extracts the numeric "id" field from a record. The second return value
// is false when the field is absent or not a number. JSON numbers decode as
// float64; ids are integral in practice but the raw float is preserved so the
// canonical string form can round-trip values above 2^53 boundaries safely.
func RecordID(record Record) (float64, bool) {
	raw, ok := record["id"]
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

// Cursor describes the pagination cursor returned by cursor-style endpoints
// (/v2/devices/search and the /v2/queries family).
type Cursor struct {
	Name    string  `json:"name,omitempty"    yaml:"name,omitempty"`
	Offset  int     `json:"offset,omitempty"  yaml:"offset,omitempty"`
	Count   int     `json:"count,omitempty"   yaml:"count,omitempty"`
	Expires float64 `json:"expires,omitempty" yaml:"expires,omitempty"`
}

// QueryResult is the envelope returned by cursor-style endpoints. Results is
// nil when the response omitted the results key entirely, and an empty
// non-nil slice when the key was present but empty; pagination treats those
// cases differently.
type QueryResult struct {
	Results []Record `json:"results" yaml:"results"`
	Cursor  *Cursor  `json:"cursor"  yaml:"cursor"`
}

// HasResultsKey reports whether the decoded envelope actually carried a
// results key. A malformed envelope (missing key) terminates pagination
// without error.
func (r *QueryResult) HasResultsKey() bool {
	return r.Results != nil
}

// NextCursor returns the cursor name for the next page, or "" when the
// response carried no usable cursor (absent cursor object or empty name).
func (r *QueryResult) NextCursor() string {
	if r.Cursor == nil {
		return ""
	}

	return r.Cursor.Name
}

// DeviceApproval is the approval mode for pending devices.
type DeviceApproval string

// Approval modes accepted by POST /v2/devices/approval/{mode}.
const (
	ApprovalApprove DeviceApproval = "APPROVE"
	ApprovalReject  DeviceApproval = "REJECT"
)

// MaintenanceRequest configures a device maintenance window.
type MaintenanceRequest struct {
	Start             float64  `json:"start"                       yaml:"start"`
	End               float64  `json:"end"                         yaml:"end"`
	DisabledFeatures  []string `json:"disabledFeatures,omitempty"  yaml:"disabledFeatures,omitempty"`
	ReasonForDisabled string   `json:"reasonForDisabled,omitempty" yaml:"reasonForDisabled,omitempty"`
}
