package domain

// Execution status constants.
const (
	ExecStatusSuccess = "SUCCESS"
	ExecStatusRevert  = "REVERT"
)

// ExecOutcome is the raw result of driving one entry point call. Revert
// reasons are surfaced unmodified; the external checker owns the pass/fail
// decision.
type ExecOutcome struct {
	Status       string // "SUCCESS" | "REVERT"
	RevertReason string // protocol revert reason, empty on success
}

// Reverted reports whether the call reverted.
func (o ExecOutcome) Reverted() bool {
	return o.Status == ExecStatusRevert
}

// MutationOutcome is the persisted record of one mutate-and-execute
// iteration, keyed by run ID for later checking and reporting.
type MutationOutcome struct {
	RunID         string // deterministic iteration identifier
	FailureMode   string // targeted failure mode label
	EntryPoint    string // entry point label
	OrderIndex    int    // mutated order, -1 for scenario-level mutations
	ResolverIndex int    // mutated resolver, -1 when not resolver-granular
	Status        string // "SUCCESS" | "REVERT"
	RevertReason  string
	DurationMs    int64
	CreatedAt     int64 // unix milliseconds
}

// OutcomeSummary is one aggregated report row over stored outcomes.
type OutcomeSummary struct {
	FailureMode   string
	EntryPoint    string
	Status        string
	Count         int64
	AvgDurationMs float64
}
