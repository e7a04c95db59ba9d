package input

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestParseCSV_HeaderDetectedAndSkipped(t *testing.T) {
	path := writeTempCSV(t, "artist_id,artist_name,artist_data\n"+
		"11111111-1111-1111-1111-111111111111,Artist One,extra info\n")
	result, err := ParseCSV(path, nil)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(result.Items))
	}
	if result.Items[0].Name != "Artist One" {
		t.Errorf("Name = %q, want Artist One", result.Items[0].Name)
	}
}

func TestParseCSV_NoHeaderAllRowsKept(t *testing.T) {
	path := writeTempCSV(t, "11111111-1111-1111-1111-111111111111,Artist One,\n"+
		"22222222-2222-2222-2222-222222222222,Artist Two,more data\n")
	result, err := ParseCSV(path, nil)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(result.Items))
	}
}

func TestParseCSV_SkipsBlankAndCommentLines(t *testing.T) {
	path := writeTempCSV(t, "# a comment\n\n11111111-1111-1111-1111-111111111111,Artist One,\n")
	result, err := ParseCSV(path, nil)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(result.Items))
	}
	if result.SkippedLines != 1 {
		t.Errorf("SkippedLines = %d, want 1", result.SkippedLines)
	}
}

func TestParseCSV_CountsInvalidRows(t *testing.T) {
	path := writeTempCSV(t, "not-a-uuid,Artist One,\n"+
		"11111111-1111-1111-1111-111111111111,Artist Two,\n")
	result, err := ParseCSV(path, nil)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(result.Items))
	}
	if result.ErrorLines != 1 {
		t.Errorf("ErrorLines = %d, want 1", result.ErrorLines)
	}
}

func TestParseCSV_MissingFile(t *testing.T) {
	_, err := ParseCSV(filepath.Join(t.TempDir(), "missing.csv"), nil)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
