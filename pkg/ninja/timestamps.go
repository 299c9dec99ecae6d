package ninja

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxEpochSeconds is 2100-01-01T00:00:00Z. Values above it are treated as
// non-epoch (millisecond counters, ids, sizes) and left alone.
const maxEpochSeconds = 4102444800

// defaultTimestampFields are field names known to carry epoch timestamps but
// not matched by any naming pattern.
var defaultTimestampFields = map[string]struct{}{
	"created":            {},
	"lastContact":        {},
	"lastUpdate":         {},
	"documentUpdateTime": {},
}

// IsTimestampField reports whether a field name looks like it carries an
// epoch timestamp. It matches the known field set, the "At"/"On" suffix
// convention (createdAt, updatedOn), and names containing "time" or "date".
// The suffix check is case sensitive so that words like "format" do not
// match.
func IsTimestampField(name string) bool {
	if _, ok := defaultTimestampFields[name]; ok {
		return true
	}

	if strings.HasSuffix(name, "At") || strings.HasSuffix(name, "On") {
		return true
	}

	lower := strings.ToLower(name)

	return strings.Contains(lower, "time") || strings.Contains(lower, "date")
}

// IsEpochTimestamp reports whether a value is plausibly an epoch timestamp in
// seconds: a non-negative number (or numeric string) no later than the year
// 2100. Millisecond epochs and negative values fail the range check.
func IsEpochTimestamp(value interface{}) bool {
	seconds, ok := epochSeconds(value)

	return ok && seconds >= 0 && seconds <= maxEpochSeconds
}

// epochSeconds extracts a float epoch from the value types json decoding can
// produce, plus numeric strings.
func epochSeconds(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}

		return f, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}

// FormatEpoch converts an epoch-seconds value to an RFC 3339 UTC string.
// Sub-second precision is preserved at microsecond resolution; whole-second
// values format without a fractional part.
func FormatEpoch(seconds float64) string {
	micros := int64(math.Round(seconds * 1e6))
	sec := micros / 1_000_000
	usec := micros % 1_000_000

	t := time.Unix(sec, usec*int64(time.Microsecond)).UTC()
	if usec == 0 {
		return t.Format("2006-01-02T15:04:05Z")
	}

	return t.Format("2006-01-02T15:04:05.000000Z")
}

// ConvertTimestamp converts a single epoch value to its RFC 3339 form. Values
// that do not look like epoch seconds are returned unchanged, so it is safe
// to apply to any field.
func ConvertTimestamp(value interface{}) interface{} {
	if !IsEpochTimestamp(value) {
		return value
	}

	seconds, ok := epochSeconds(value)
	if !ok {
		return value
	}

	return FormatEpoch(seconds)
}

// NormalizeTimestamps walks a decoded API response and converts epoch values
// held by timestamp-looking fields to RFC 3339 UTC strings. The input is not
// mutated: maps and slices along converted paths are copied. Additional field
// names can be supplied for tenant-specific custom fields.
func NormalizeTimestamps(data interface{}, additionalFields ...string) interface{} {
	extra := map[string]struct{}{}
	for _, name := range additionalFields {
		extra[name] = struct{}{}
	}

	return normalizeValue(data, extra)
}

func normalizeValue(data interface{}, extra map[string]struct{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))

		for key, val := range v {
			switch val.(type) {
			case map[string]interface{}, []interface{}:
				out[key] = normalizeValue(val, extra)
			default:
				if isTimestampFieldWith(key, extra) {
					out[key] = ConvertTimestamp(val)
				} else {
					out[key] = val
				}
			}
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item, extra)
		}

		return out
	default:
		return data
	}
}

func isTimestampFieldWith(name string, extra map[string]struct{}) bool {
	if _, ok := extra[name]; ok {
		return true
	}

	return IsTimestampField(name)
}

// TimestampConverter applies timestamp normalization to API responses with a
// runtime on/off toggle. The zero value is disabled; ninjaclient constructs
// one according to Config.ConvertTimestamps. Safe for concurrent use.
type TimestampConverter struct {
	mu          sync.RWMutex
	enabled     bool
	extraFields []string
}

// NewTimestampConverter creates a converter. additionalFields extends the
// built-in timestamp field set.
func NewTimestampConverter(enabled bool, additionalFields ...string) *TimestampConverter {
	return &TimestampConverter{
		enabled:     enabled,
		extraFields: append([]string(nil), additionalFields...),
	}
}

// SetEnabled toggles conversion at runtime.
func (c *TimestampConverter) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.enabled = enabled
}

// Enabled reports whether conversion is currently on.
func (c *TimestampConverter) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.enabled
}

// Process normalizes timestamps in data when conversion is enabled, and
// returns data untouched otherwise.
func (c *TimestampConverter) Process(data interface{}) interface{} {
	c.mu.RLock()
	enabled := c.enabled
	extra := c.extraFields
	c.mu.RUnlock()

	if !enabled {
		return data
	}

	return NormalizeTimestamps(data, extra...)
}

// ProcessRecords is Process specialized for record slices, keeping the
// concrete []Record type for callers.
func (c *TimestampConverter) ProcessRecords(records []Record) []Record {
	if !c.Enabled() || records == nil {
		return records
	}

	out := make([]Record, len(records))

	for i, rec := range records {
		converted, ok := c.Process(rec).(map[string]interface{})
		if !ok {
			out[i] = rec

			continue
		}

		out[i] = converted
	}

	return out
}
