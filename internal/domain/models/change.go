package models

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"time"

	"github.com/hpyride/hpyride/internal/domain/types"
)

// RowChange is one insert/update/delete event from the change feed.
type RowChange struct {
	Table           string           `json:"table"`
	Type            types.ChangeType `json:"type"`
	Record          json.RawMessage  `json:"record,omitempty"`
	OldRecord       json.RawMessage  `json:"old_record,omitempty"`
	CommitTimestamp time.Time        `json:"commit_timestamp"`
}

// Filter is an equality predicate, logged as column=eq.value.
// The zero Filter matches every row.
type Filter struct {
	Column string
	Value  string
}

func EqFilter(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

func (f Filter) String() string {
	if f.Column == "" {
		return ""
	}
	return f.Column + "=eq." + f.Value
}

// Match reports whether record[column] equals the filter value.
func (f Filter) Match(record json.RawMessage) bool {
	if f.Column == "" {
		return true
	}
	if len(record) == 0 {
		return false
	}

	dec := json.NewDecoder(bytes.NewReader(record))
	dec.UseNumber()

	var row map[string]any
	if err := dec.Decode(&row); err != nil {
		return false
	}

	v, ok := row[f.Column]
	if !ok {
		return false
	}

	switch t := v.(type) {
	case string:
		return t == f.Value
	case json.Number:
		return t.String() == f.Value
	case bool:
		return strconv.FormatBool(t) == f.Value
	case nil:
		return f.Value == "null"
	default:
		return false
	}
}

// ChangeSubscription describes what a change-feed subscriber wants to observe.
type ChangeSubscription struct {
	Channel string
	Table   string
	Events  []types.ChangeType
	Filter  Filter
}

// Matches applies table, event and filter. Deletes are filtered on the old record.
func (s ChangeSubscription) Matches(c RowChange) bool {
	if s.Table != c.Table {
		return false
	}
	if len(s.Events) > 0 && !slices.Contains(s.Events, c.Type) {
		return false
	}

	record := c.Record
	if c.Type == types.ChangeDelete {
		record = c.OldRecord
	}
	return s.Filter.Match(record)
}
