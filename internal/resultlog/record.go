package resultlog

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/xdjs/artist-bio-gen/internal/domain"
)

const defaultArtistData = "No additional data provided"

type requestVariables struct {
	ArtistName string `json:"artist_name"`
	ArtistData string `json:"artist_data"`
}

type requestBlock struct {
	PromptID  string           `json:"prompt_id"`
	Version   string           `json:"version,omitempty"`
	Variables requestVariables `json:"variables"`
}

// jsonRecord is the on-disk shape of one result log line, per the
// external interfaces: artist_id, artist_name, artist_data?, request,
// response_text, response_id, created, db_status, error|null.
type jsonRecord struct {
	ArtistID   string       `json:"artist_id"`
	ArtistName string       `json:"artist_name"`
	ArtistData string       `json:"artist_data,omitempty"`
	Request    requestBlock `json:"request"`
	Response   string       `json:"response_text"`
	ResponseID string       `json:"response_id"`
	Created    int64        `json:"created"`
	DBStatus   string       `json:"db_status"`
	Error      *string      `json:"error"`
}

func buildRecord(rec domain.ResponseRecord, promptID, version string) jsonRecord {
	variableData := rec.Extra
	if variableData == "" {
		variableData = defaultArtistData
	}

	out := jsonRecord{
		ArtistID:   rec.WorkID.String(),
		ArtistName: rec.Name,
		ArtistData: rec.Extra,
		Request: requestBlock{
			PromptID: promptID,
			Version:  version,
			Variables: requestVariables{
				ArtistName: rec.Name,
				ArtistData: variableData,
			},
		},
		Response:   rec.Text,
		ResponseID: rec.RemoteID,
		Created:    rec.CreatedEpochSeconds,
		DBStatus:   string(rec.PersistenceStatus),
	}
	if rec.Failed() {
		out.Error = &rec.ErrorMessage
	}
	return out
}

// processedLine is the minimal shape GetProcessedIDs needs to read: it
// tolerates lines that don't otherwise parse as a full jsonRecord.
type processedLine struct {
	ArtistID string  `json:"artist_id"`
	Error    *string `json:"error"`
}

// GetProcessedIDs reads path tolerantly (malformed lines are skipped with
// a warning) and returns the set of work_ids for records whose error
// field is null or absent — the already-processed set used to
// pre-filter dispatch on resume.
func GetProcessedIDs(path string, logger *slog.Logger) (map[uuid.UUID]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[uuid.UUID]struct{}{}, nil
		}
		return nil, err
	}
	defer f.Close()

	ids := map[uuid.UUID]struct{}{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec processedLine
		if err := json.Unmarshal(line, &rec); err != nil {
			if logger != nil {
				logger.Warn("skipping malformed result log line", "error", err)
			}
			continue
		}
		if rec.Error != nil {
			continue
		}
		id, err := uuid.Parse(rec.ArtistID)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping result log line with invalid artist_id", "artist_id", rec.ArtistID)
			}
			continue
		}
		ids[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
