package domain

// SyncDetail is the per-integration slice of an orchestration run.
type SyncDetail struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// SyncOutcome aggregates one orchestration run across all connected
// integrations. Produced fresh per run, never persisted.
// Successful + Failed always equals the number of connected integrations.
type SyncOutcome struct {
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Details    []SyncDetail `json:"details"`
}

// SyncReport is the result of one adapter's best-effort reconciliation
// pass. Adapters never return an error from Sync; internal failures are
// folded into the Errors counter.
type SyncReport struct {
	Success      bool     `json:"success"`
	Synchronized int      `json:"synchronized"`
	Errors       int      `json:"errors"`
	Details      []string `json:"details,omitempty"`
}
