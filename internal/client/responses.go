package client

import (
	"encoding/json"
	"fmt"

	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// decodeRecord parses a single-object response body, applying timestamp
// conversion when the converter is enabled.
func decodeRecord(body []byte, converter *ninja.TimestampConverter) (ninja.Record, error) {
	if len(body) == 0 {
		return nil, nil
	}

	var record ninja.Record

	err := json.Unmarshal(body, &record)
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	if converted, ok := converter.Process(record).(ninja.Record); ok {
		return converted, nil
	}

	return record, nil
}

// decodeRecords parses an array response body.
func decodeRecords(body []byte, converter *ninja.TimestampConverter) ([]ninja.Record, error) {
	var records []ninja.Record

	err := json.Unmarshal(body, &records)
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return converter.ProcessRecords(records), nil
}

// decodeQueryResult parses a cursor envelope. A body without a results key
// decodes to a QueryResult whose Results is nil, which pagination treats as
// the end of the result set.
func decodeQueryResult(body []byte, converter *ninja.TimestampConverter) (*ninja.QueryResult, error) {
	var result ninja.QueryResult

	err := json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing query response: %w", err)
	}

	if result.Results != nil {
		result.Results = converter.ProcessRecords(result.Results)
	}

	return &result, nil
}
