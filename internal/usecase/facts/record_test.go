package facts

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nocap-labs/factstore/internal/index"
)

func wellFormedRecord() blobRecord {
	return blobRecord{
		ID:      "parsed",
		Title:   "A parseable fact",
		Author:  "marketdesk",
		Created: testNow,
		Updated: testNow,
		Version: 1,
		Tags:    []index.TagRef{{Name: "bitcoin", Category: "topic"}},
		Status:  "verified",
	}
}

func TestParseBlobRecord_RejectsIllFormedRecords(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*blobRecord)
		wantErr string
	}{
		{"missing id", func(r *blobRecord) { r.ID = "" }, "no id"},
		{"missing title", func(r *blobRecord) { r.Title = "" }, "no title"},
		{"bad status", func(r *blobRecord) { r.Status = "plausible" }, "invalid status"},
		{"zero version", func(r *blobRecord) { r.Version = 0 }, "invalid version"},
		{"zero created", func(r *blobRecord) { r.Created = time.Time{} }, "no creation time"},
		{"nameless tag", func(r *blobRecord) { r.Tags[0].Name = "" }, "invalid tag"},
		{"bad tag category", func(r *blobRecord) { r.Tags[0].Category = "vibe" }, "invalid tag"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := wellFormedRecord()
			tc.mutate(&rec)
			data, err := json.Marshal(rec)
			if err != nil {
				t.Fatal(err)
			}
			_, err = parseBlobRecord(data)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("want error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestParseBlobRecord_RoundTrip(t *testing.T) {
	data, err := json.Marshal(wellFormedRecord())
	if err != nil {
		t.Fatal(err)
	}
	rec, err := parseBlobRecord(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.ID != "parsed" || rec.Version != 1 || !rec.Created.Equal(testNow) {
		t.Errorf("parsed record: %+v", rec)
	}
}
