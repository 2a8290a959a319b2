package models

// LifecycleResult summarizes one batch sweep of the tournament lifecycle
// engine. Counts reflect successful updates only; tournaments whose update
// failed are skipped and retried on the next sweep.
type LifecycleResult struct {
	Updated             int `json:"updated"`
	StartedCount        int `json:"startedCount"`
	CompletedCount      int `json:"completedCount"`
	AwaitingPayoutCount int `json:"awaitingPayoutCount"`
}
