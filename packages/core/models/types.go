package models

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
)

// StringSet is an ordered list of unique strings stored as a jsonb array.
type StringSet []string

func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}

	return json.Unmarshal(bytes, s)
}

func (s StringSet) Contains(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

// Add appends value unless already present and reports whether it was added.
func (s *StringSet) Add(value string) bool {
	if s.Contains(value) {
		return false
	}
	*s = append(*s, value)
	return true
}

// Remove drops value and reports whether it was present.
func (s *StringSet) Remove(value string) bool {
	for i, v := range *s {
		if v == value {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}
