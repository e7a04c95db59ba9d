package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// stateFile mirrors the on-disk quota state file shape from the external
// interfaces: daily_limit_requests, pause_threshold, requests_used_today,
// last_reset, quota_status, quota_metrics.
type stateFile struct {
	DailyLimitRequests *int      `json:"daily_limit_requests"`
	PauseThreshold     float64   `json:"pause_threshold"`
	RequestsUsedToday  int       `json:"requests_used_today"`
	LastReset          time.Time `json:"last_reset"`
	QuotaStatus        snapDTO   `json:"quota_status"`
	QuotaMetrics       Metrics   `json:"quota_metrics"`
}

type snapDTO struct {
	RequestsRemaining int       `json:"requests_remaining"`
	RequestsLimit     int       `json:"requests_limit"`
	TokensRemaining   int       `json:"tokens_remaining"`
	TokensLimit       int       `json:"tokens_limit"`
	ResetRequests     string    `json:"reset_requests"`
	ResetTokens       string    `json:"reset_tokens"`
	Timestamp         time.Time `json:"timestamp"`
}

// PersistState writes the full monitor state atomically: a temp file in
// the same directory followed by a rename.
func (m *Monitor) PersistState(path string) error {
	m.mu.Lock()
	state := stateFile{
		DailyLimitRequests: m.dailyLimitRequests,
		PauseThreshold:     m.pauseThreshold,
		RequestsUsedToday:  m.requestsUsedToday,
		LastReset:          m.lastResetDay,
		QuotaStatus: snapDTO{
			RequestsRemaining: m.latestSnapshot.RequestsRemaining,
			RequestsLimit:     m.latestSnapshot.RequestsLimit,
			TokensRemaining:   m.latestSnapshot.TokensRemaining,
			TokensLimit:       m.latestSnapshot.TokensLimit,
			ResetRequests:     m.latestSnapshot.ResetRequestsHint,
			ResetTokens:       m.latestSnapshot.ResetTokensHint,
			Timestamp:         m.latestSnapshot.CapturedAt,
		},
		QuotaMetrics: m.latestMetrics,
	}
	m.mu.Unlock()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("quota state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".quota-state-*.tmp")
	if err != nil {
		return fmt.Errorf("quota state temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		tmp.Close()
		return fmt.Errorf("encode quota state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close quota state temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename quota state file: %w", err)
	}
	return nil
}

// LoadState restores monitor state from path. A missing file returns
// (false, nil) rather than an error.
func (m *Monitor) LoadState(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read quota state: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return false, fmt.Errorf("parse quota state: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyLimitRequests = state.DailyLimitRequests
	if state.PauseThreshold > 0 {
		m.pauseThreshold = state.PauseThreshold
	}
	m.requestsUsedToday = state.RequestsUsedToday
	if !state.LastReset.IsZero() {
		m.lastResetDay = state.LastReset
	}
	m.latestSnapshot = Snapshot{
		RequestsRemaining: state.QuotaStatus.RequestsRemaining,
		RequestsLimit:     state.QuotaStatus.RequestsLimit,
		TokensRemaining:   state.QuotaStatus.TokensRemaining,
		TokensLimit:       state.QuotaStatus.TokensLimit,
		ResetRequestsHint: state.QuotaStatus.ResetRequests,
		ResetTokensHint:   state.QuotaStatus.ResetTokens,
		CapturedAt:        state.QuotaStatus.Timestamp,
	}
	m.latestMetrics = state.QuotaMetrics
	return true, nil
}
