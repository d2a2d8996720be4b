package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSON is a custom JSON column type implementing driver.Valuer and
// sql.Scanner. It works with both PostgreSQL JSONB and SQLite JSON columns
// without pulling in gorm.io/datatypes.
type JSON json.RawMessage

// Value implements driver.Valuer for database writes.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	var tmp interface{}
	if err := json.Unmarshal(j, &tmp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner for database reads.
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("null")
		return nil
	}

	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("failed to scan JSON value: unsupported type")
	}

	var tmp interface{}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return fmt.Errorf("invalid JSON in database: %w", err)
	}
	*j = JSON(b)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return []byte(j), nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("JSON: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) String() string {
	return string(j)
}

// StringSlice stores a list of strings as a JSON array column.
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal([]string(s))
}

func (s *StringSlice) Scan(value interface{}) error {
	return scanJSONColumn(value, (*[]string)(s))
}

// Int64Slice stores a list of integers as a JSON array column. Used for
// monetary amounts in minor units.
type Int64Slice []int64

func (s Int64Slice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal([]int64(s))
}

func (s *Int64Slice) Scan(value interface{}) error {
	return scanJSONColumn(value, (*[]int64)(s))
}

// Vector stores an embedding as a JSON array of float32. An empty vector
// means no embedding was computed.
type Vector []float32

func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal([]float32(v))
}

func (v *Vector) Scan(value interface{}) error {
	return scanJSONColumn(value, (*[]float32)(v))
}

func scanJSONColumn(value, dest interface{}) error {
	if value == nil {
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("failed to scan JSON column: unsupported type")
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dest)
}
