package constants

// RunStatus is the canonical status for rows in evaluation_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusCompleted RunStatus = "COMPLETED" // every document scored
	RunStatusPartial   RunStatus = "PARTIAL"   // some documents failed
	RunStatusFailed    RunStatus = "FAILED"    // no document scored
)
