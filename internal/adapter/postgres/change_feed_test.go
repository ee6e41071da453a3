package postgres

import (
	"testing"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
)

func TestDecodeNotification(t *testing.T) {
	payload := `{"table":"bookings","type":"UPDATE",
		"record":{"id":"b1","status":"completed"},
		"old_record":{"id":"b1","status":"in_progress"},
		"commit_timestamp":"2026-03-14T09:12:00.123+00:00"}`

	c, err := DecodeNotification([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeNotification: %v", err)
	}
	if c.Table != types.TableBookings || c.Type != types.ChangeUpdate {
		t.Fatalf("unexpected change %+v", c)
	}
	if !models.EqFilter("status", "completed").Match(c.Record) {
		t.Fatal("record must be kept as sent")
	}
	if c.CommitTimestamp.IsZero() {
		t.Fatal("commit timestamp must be parsed")
	}
}

func TestDecodeNotification_NullRecords(t *testing.T) {
	c, err := DecodeNotification([]byte(`{"table":"bookings","type":"INSERT","record":{"id":"b1"},"old_record":null}`))
	if err != nil {
		t.Fatalf("DecodeNotification: %v", err)
	}
	if c.OldRecord != nil {
		t.Fatalf("null old_record must decode to nil, got %s", c.OldRecord)
	}
	if c.CommitTimestamp.IsZero() {
		t.Fatal("missing commit timestamp must default to now")
	}
}

func TestDecodeNotification_Invalid(t *testing.T) {
	for _, payload := range []string{
		`{`,
		`{"type":"INSERT"}`,
		`{"table":"bookings","type":"TRUNCATE"}`,
	} {
		if _, err := DecodeNotification([]byte(payload)); err == nil {
			t.Errorf("DecodeNotification(%s) must fail", payload)
		}
	}
}
