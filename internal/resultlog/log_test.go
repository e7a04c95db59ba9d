package resultlog

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/xdjs/artist-bio-gen/internal/domain"
)

func TestLog_AppendAndGetProcessedIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	log, err := Open(path, "pmpt_123", "v1", false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ok1 := domain.ResponseRecord{WorkID: uuid.New(), Name: "Artist One", Text: "bio one", PersistenceStatus: domain.PersistenceUpdated}
	failed := domain.ResponseRecord{WorkID: uuid.New(), Name: "Artist Two", ErrorMessage: "remote call failed"}
	ok2 := domain.ResponseRecord{WorkID: uuid.New(), Name: "Artist Three", Text: "bio three", PersistenceStatus: domain.PersistenceSkipped}

	for _, rec := range []domain.ResponseRecord{failed, ok1, ok2} {
		if err := log.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	processed, err := GetProcessedIDs(path, nil)
	if err != nil {
		t.Fatalf("GetProcessedIDs: %v", err)
	}
	if len(processed) != 2 {
		t.Fatalf("len(processed) = %d, want 2", len(processed))
	}
	if _, ok := processed[ok1.WorkID]; !ok {
		t.Errorf("expected %s in processed set", ok1.WorkID)
	}
	if _, ok := processed[ok2.WorkID]; !ok {
		t.Errorf("expected %s in processed set", ok2.WorkID)
	}
	if _, ok := processed[failed.WorkID]; ok {
		t.Errorf("did not expect failed record %s in processed set", failed.WorkID)
	}
}

func TestGetProcessedIDs_MissingFileReturnsEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.jsonl")
	processed, err := GetProcessedIDs(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(processed) != 0 {
		t.Errorf("expected empty set, got %d entries", len(processed))
	}
}

func TestGetProcessedIDs_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	log, err := Open(path, "pmpt_123", "v1", false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	good := domain.ResponseRecord{WorkID: uuid.New(), Name: "Artist One", Text: "bio", PersistenceStatus: domain.PersistenceUpdated}
	if err := log.Append(good); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := log.file.WriteString("not json at all\n"); err != nil {
		t.Fatalf("write malformed line: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	processed, err := GetProcessedIDs(path, nil)
	if err != nil {
		t.Fatalf("GetProcessedIDs: %v", err)
	}
	if _, ok := processed[good.WorkID]; !ok || len(processed) != 1 {
		t.Errorf("expected exactly the well-formed record in processed set, got %v", processed)
	}
}

func TestOpen_ResumeAppendsInsteadOfTruncating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	first, err := Open(path, "pmpt_123", "v1", false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec := domain.ResponseRecord{WorkID: uuid.New(), Name: "Artist One", Text: "bio", PersistenceStatus: domain.PersistenceUpdated}
	if err := first.Append(rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path, "pmpt_123", "v1", true)
	if err != nil {
		t.Fatalf("Open (resume): %v", err)
	}
	defer second.Close()

	processed, err := GetProcessedIDs(path, nil)
	if err != nil {
		t.Fatalf("GetProcessedIDs: %v", err)
	}
	if _, ok := processed[rec.WorkID]; !ok {
		t.Errorf("expected prior record to survive resume-mode Open, got %v", processed)
	}
}
