package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hpyride/hpyride/internal/domain/types"
)

func TestFilter_String(t *testing.T) {
	tests := []struct {
		f    Filter
		want string
	}{
		{EqFilter("id", "b42"), "id=eq.b42"},
		{EqFilter("note", "a=b"), "note=eq.a=b"},
		{Filter{}, ""},
	}

	for _, tt := range tests {
		if got := tt.f.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestFilter_Match(t *testing.T) {
	record := json.RawMessage(`{"id":"b42","seats":2,"paid":true,"reason":null}`)

	tests := []struct {
		f    Filter
		want bool
	}{
		{EqFilter("id", "b42"), true},
		{EqFilter("id", "b43"), false},
		{EqFilter("seats", "2"), true},
		{EqFilter("paid", "true"), true},
		{EqFilter("reason", "null"), true},
		{EqFilter("missing", "x"), false},
		{Filter{}, true},
	}

	for _, tt := range tests {
		if got := tt.f.Match(record); got != tt.want {
			t.Errorf("%s.Match = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestChangeSubscription_Matches(t *testing.T) {
	sub := ChangeSubscription{
		Table:  types.TableBookings,
		Events: []types.ChangeType{types.ChangeInsert},
		Filter: EqFilter("driver_id", "d1"),
	}

	insert := RowChange{Table: types.TableBookings, Type: types.ChangeInsert, Record: json.RawMessage(`{"driver_id":"d1"}`)}
	if !sub.Matches(insert) {
		t.Fatal("insert for d1 must match")
	}

	update := insert
	update.Type = types.ChangeUpdate
	if sub.Matches(update) {
		t.Fatal("update must not match an insert-only subscription")
	}

	other := insert
	other.Record = json.RawMessage(`{"driver_id":"d2"}`)
	if sub.Matches(other) {
		t.Fatal("insert for d2 must not match")
	}

	wrongTable := insert
	wrongTable.Table = types.TableChatMessages
	if sub.Matches(wrongTable) {
		t.Fatal("other table must not match")
	}

	del := ChangeSubscription{Table: types.TableBookings, Filter: EqFilter("id", "b1")}
	deleted := RowChange{Table: types.TableBookings, Type: types.ChangeDelete, OldRecord: json.RawMessage(`{"id":"b1"}`)}
	if !del.Matches(deleted) {
		t.Fatal("delete must be filtered on the old record")
	}
}

func TestDecodeBookingChange(t *testing.T) {
	rec := json.RawMessage(`{
		"id":"6f1f3f5e-8d7b-4c39-9f77-3f4bd2c8a001",
		"ride_id":"6f1f3f5e-8d7b-4c39-9f77-3f4bd2c8a002",
		"rider_id":"6f1f3f5e-8d7b-4c39-9f77-3f4bd2c8a003",
		"driver_id":"6f1f3f5e-8d7b-4c39-9f77-3f4bd2c8a004",
		"seats":1,
		"status":"completed"
	}`)
	old := json.RawMessage(`{"id":"6f1f3f5e-8d7b-4c39-9f77-3f4bd2c8a001","status":"in_progress"}`)

	got, err := DecodeBookingChange(RowChange{
		Table: types.TableBookings, Type: types.ChangeUpdate, Record: rec, OldRecord: old,
	})
	if err != nil {
		t.Fatalf("DecodeBookingChange: %v", err)
	}
	if got.Booking.Status != types.BookingCompleted {
		t.Fatalf("unexpected status %s", got.Booking.Status)
	}
	if got.Old == nil || got.Old.Status != types.BookingInProgress {
		t.Fatalf("expected old record, got %+v", got.Old)
	}
}

func TestDecodeBookingChange_Invalid(t *testing.T) {
	cases := map[string]RowChange{
		"wrong table": {Table: types.TableChatMessages, Type: types.ChangeInsert, Record: json.RawMessage(`{}`)},
		"bad json":    {Table: types.TableBookings, Type: types.ChangeInsert, Record: json.RawMessage(`{`)},
		"missing id":  {Table: types.TableBookings, Type: types.ChangeInsert, Record: json.RawMessage(`{"status":"requested"}`)},
		"bad status": {Table: types.TableBookings, Type: types.ChangeInsert,
			Record: json.RawMessage(`{"id":"6f1f3f5e-8d7b-4c39-9f77-3f4bd2c8a001","status":"teleported"}`)},
	}

	for name, c := range cases {
		if _, err := DecodeBookingChange(c); !errors.Is(err, ErrInvalidBookingRecord) {
			t.Errorf("%s: expected ErrInvalidBookingRecord, got %v", name, err)
		}
	}
}
