package models

// IngestReport summarizes one ingestion run for operators.
type IngestReport struct {
	Success        bool           `json:"success"`
	Error          string         `json:"error,omitempty"`
	State          string         `json:"state"`
	Pages          int            `json:"pages"`
	Fetched        int            `json:"fetched"`
	Stored         int            `json:"stored"`
	AlertsCreated  int            `json:"alerts_created"`
	ExtremeSkipped int            `json:"extreme_skipped"`
	Dropped        map[string]int `json:"dropped,omitempty"`
}

// SyncReport summarizes one resolution reconciliation pass.
type SyncReport struct {
	Mode     string `json:"mode"`
	Checked  int    `json:"checked"`
	Resolved int    `json:"resolved"`
	Touched  int    `json:"touched"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}
