// Package input parses the CSV input file into domain.WorkItems.
package input

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xdjs/artist-bio-gen/internal/domain"
)

// ParseResult is the outcome of parsing one input file.
type ParseResult struct {
	Items        []domain.WorkItem
	SkippedLines int
	ErrorLines   int
}

var headerFirstColumns = map[string]bool{
	"artist_id": true,
	"id":        true,
	"uuid":      true,
}

// ParseCSV reads artist_id,artist_name,artist_data rows from path. A
// header row is optional and detected when column 1 is (case-
// insensitively) one of artist_id/id/uuid. Lines beginning '#' and blank
// lines are skipped; invalid rows are counted, logged, and excluded.
func ParseCSV(path string, logger *slog.Logger) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result ParseResult
	first := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.ErrorLines++
			if logger != nil {
				logger.Warn("skipping malformed input row", "error", err)
			}
			continue
		}

		if isBlankRecord(record) {
			result.SkippedLines++
			continue
		}

		if first {
			first = false
			if len(record) >= 2 && headerFirstColumns[strings.ToLower(strings.TrimSpace(record[0]))] {
				result.SkippedLines++
				continue
			}
		}

		if len(record) < 2 {
			result.ErrorLines++
			if logger != nil {
				logger.Warn("skipping input row with too few columns", "row", record)
			}
			continue
		}

		extra := ""
		if len(record) >= 3 {
			extra = record[2]
		}

		item, err := domain.NewWorkItem(strings.TrimSpace(record[0]), record[1], extra)
		if err != nil {
			result.ErrorLines++
			if logger != nil {
				logger.Warn("skipping invalid input row", "error", err)
			}
			continue
		}
		result.Items = append(result.Items, item)
	}

	return result, nil
}

func isBlankRecord(record []string) bool {
	if len(record) == 0 {
		return true
	}
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
