package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nocap-labs/factstore/internal/domain/fact"
	"github.com/nocap-labs/factstore/internal/domain/search"
)

func snapshotPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data", "index.json")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	path := snapshotPath(t)

	ix := New()
	ix.Put(testRecord("a"))
	b := testRecord("b")
	b.Title = "Coral bleaching event confirmed"
	b.Tags = []TagRef{{Name: "climate", Category: "topic"}}
	ix.Put(b)

	if err := ix.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := New()
	n, err := restored.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Fatalf("loaded %d records, want 2", n)
	}

	// derived maps were rebuilt, not round-tripped
	res := restored.Search(mustQuery(t, search.Params{Tags: []string{"climate"}}))
	if res.Total != 1 || res.Records[0].ID != "b" {
		t.Errorf("tag search after load: total=%d", res.Total)
	}
	res = restored.Search(mustQuery(t, search.Params{Keywords: []string{"bitcoin"}}))
	if res.Total != 1 || res.Records[0].ID != "a" {
		t.Errorf("keyword search after load: total=%d", res.Total)
	}
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	ix := New()
	n, err := ix.Load(snapshotPath(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 || ix.Len() != 0 {
		t.Errorf("n=%d len=%d, want empty", n, ix.Len())
	}
}

func TestLoad_UnsupportedVersion(t *testing.T) {
	path := snapshotPath(t)
	writeSnapshotFile(t, path, map[string]any{"version": 99, "records": []any{}})

	if _, err := New().Load(path); err == nil {
		t.Error("expected version error")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := snapshotPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New().Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoad_RejectsMalformedRecords(t *testing.T) {
	good := testRecord("good")

	cases := []struct {
		name   string
		mutate func(*Record)
	}{
		{"missing id", func(r *Record) { r.ID = "" }},
		{"missing blob id", func(r *Record) { r.BlobID = "" }},
		{"bad status", func(r *Record) { r.Status = "pending" }},
		{"zero version", func(r *Record) { r.Version = 0 }},
		{"zero created", func(r *Record) { r.Created = time.Time{} }},
		{"bad tag", func(r *Record) { r.Tags = []TagRef{{Name: "x", Category: "vibe"}} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bad := good
			tc.mutate(&bad)
			path := snapshotPath(t)
			writeSnapshotFile(t, path, snapshot{Version: snapshotVersion, Records: []Record{bad}})

			ix := New()
			if _, err := ix.Load(path); err == nil {
				t.Error("expected validation error")
			}
			if ix.Len() != 0 {
				t.Error("nothing may be indexed from a rejected snapshot")
			}
		})
	}
}

func TestValidateRecord_AcceptsGoodRecord(t *testing.T) {
	if err := validateRecord(testRecord("ok")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	rec := testRecord("untagged")
	rec.Tags = nil
	if err := validateRecord(rec); err != nil {
		t.Errorf("tagless record must pass: %v", err)
	}
	if fact.Status(rec.Status) != fact.StatusVerified {
		t.Fatalf("fixture status drifted: %q", rec.Status)
	}
}

func writeSnapshotFile(t *testing.T, path string, v any) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}
