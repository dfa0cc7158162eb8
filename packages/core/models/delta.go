package models

import (
	"database/sql/driver"
	"errors"

	"github.com/goccy/go-json"
)

type DeltaEntry struct {
	UserID string `json:"user_id" bson:"user_id"`
	Player string `json:"player" bson:"player"`
	Change int    `json:"change" bson:"change"`
}

// Delta lists the point changes of one match, losers first and winner last.
type Delta []DeltaEntry

func (d Delta) Sum() int {
	total := 0
	for _, e := range d {
		total += e.Change
	}
	return total
}

func (d Delta) For(userID string) (DeltaEntry, bool) {
	for _, e := range d {
		if e.UserID == userID {
			return e, true
		}
	}
	return DeltaEntry{}, false
}

func (d Delta) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

func (d *Delta) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return errors.New("type assertion to []byte failed")
	}
}
