package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap stores an arbitrary JSON object inside a JSONB column.
type JSONMap map[string]any

// Value serializes the map to JSON.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan decodes JSONB into the map.
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded JSONMap
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*j = decoded
	return nil
}

// Canonical returns the map rendered as JSON with sorted keys, suitable for
// equality comparison of two payloads.
func (j JSONMap) Canonical() string {
	if len(j) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(j)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// Equal reports whether two maps carry the same JSON content.
func (j JSONMap) Equal(other JSONMap) bool {
	return j.Canonical() == other.Canonical()
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source type %T", value)
	}
}
