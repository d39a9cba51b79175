package model

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// JSON is a raw JSON document stored in a jsonb column.
type JSON []byte

// Value implements driver.Valuer
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements sql.Scanner
func (j *JSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*j = nil
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = JSON(v)
	default:
		return errors.New("model: unsupported JSON column type")
	}
	return nil
}

// MarshalJSON emits the raw document, or null when empty.
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON stores a copy of the raw document.
func (j *JSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[:0], data...)
	return nil
}

// MustJSON encodes v, returning nil if it cannot be encoded.
func MustJSON(v interface{}) JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
