package models

import (
	"encoding/json"
	"fmt"
)

// MarshalRecords serializes a record collection into its persisted JSON form.
func MarshalRecords(records []SalesRecord) ([]byte, error) {
	if records == nil {
		records = []SalesRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return data, nil
}

// UnmarshalRecords restores a record collection. Empty input is an empty collection.
func UnmarshalRecords(data []byte) ([]SalesRecord, error) {
	if len(data) == 0 {
		return []SalesRecord{}, nil
	}
	var records []SalesRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	if records == nil {
		records = []SalesRecord{}
	}
	return records, nil
}
