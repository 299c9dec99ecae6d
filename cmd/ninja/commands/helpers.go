package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"

	// YAML formatting.
	defaultYAMLIndent = 2
)

// Common static errors used throughout the commands package.
var (
	ErrInstanceNotFound           = errors.New("instance not found")
	ErrNoInstancesConfigured      = errors.New("no instances configured")
	ErrCurrentInstanceNotFound    = errors.New("current instance not found")
	ErrInstanceEndpointRequired   = errors.New("instance endpoint is required")
	ErrClientCredentialsRequired  = errors.New("client ID and client secret are required")
	ErrNotAuthenticated           = errors.New("not authenticated, use 'ninja login' first")
	ErrOrganizationNameRequired   = errors.New("organization name is required")
	ErrTagNameRequired            = errors.New("tag name is required")
	ErrSearchQueryRequired        = errors.New("search query is required")
	ErrInvalidDeviceID            = errors.New("device id must be an integer")
	ErrInvalidOrganizationID      = errors.New("organization id must be an integer")
	ErrInvalidTagID               = errors.New("tag id must be an integer")
	ErrMaintenanceWindowRequired  = errors.New("maintenance start and end are required")
	ErrUnknownConfigurationKey    = errors.New("unknown configuration key")
	ErrAtLeastOneDeviceRequired   = errors.New("at least one device id is required")
)

// StandardJSONRenderer creates a standard JSON encoder.
func StandardJSONRenderer[T any](data T) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

// StandardYAMLRenderer creates a standard YAML encoder.
func StandardYAMLRenderer[T any](data T) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// recordValue renders a single record field for table output.
func recordValue(record ninja.Record, key string) string {
	value, ok := record[key]
	if !ok || value == nil {
		return NotAvailable
	}

	switch typed := value.(type) {
	case string:
		if typed == "" {
			return NotAvailable
		}

		return typed
	case float64:
		// Ids and counters decode as float64; render integral values
		// without a fractional part.
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// renderRecordsTable renders records as a table with the given columns, where
// headers[i] is the column title for record key keys[i].
func renderRecordsTable(headers []string, keys []string, records []ninja.Record) error {
	table := tablewriter.NewWriter(os.Stdout)

	headerCells := make([]any, 0, len(headers))
	for _, header := range headers {
		headerCells = append(headerCells, header)
	}

	table.Header(headerCells...)

	for _, record := range records {
		row := make([]any, 0, len(keys))
		for _, key := range keys {
			row = append(row, recordValue(record, key))
		}

		_ = table.Append(row...)
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderRecordDetails renders a single record as a property/value table with
// keys in stable order.
func renderRecordDetails(record ninja.Record) error {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")

	for _, key := range keys {
		_ = table.Append(key, recordValue(record, key))
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// parseIntArg parses a positional id argument.
func parseIntArg(arg string, sentinel error) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", sentinel, arg)
	}

	return id, nil
}
