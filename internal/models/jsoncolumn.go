package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}

func valueJSON(v interface{}) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// StringList is a JSONB-backed list of strings.
type StringList []string

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer. A nil list is stored as an empty array.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return valueJSON([]string{})
	}
	return valueJSON([]string(l))
}

// PhaseList is a JSONB-backed ordered list of calendar phases.
type PhaseList []Phase

// Scan implements sql.Scanner.
func (l *PhaseList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer.
func (l PhaseList) Value() (driver.Value, error) {
	if l == nil {
		return valueJSON([]Phase{})
	}
	return valueJSON([]Phase(l))
}

// ErrorList is a JSONB-backed list of sync error entries.
type ErrorList []SyncError

// Scan implements sql.Scanner.
func (l *ErrorList) Scan(src interface{}) error { return scanJSON(src, l) }

// Value implements driver.Valuer.
func (l ErrorList) Value() (driver.Value, error) {
	if l == nil {
		return valueJSON([]SyncError{})
	}
	return valueJSON([]SyncError(l))
}
