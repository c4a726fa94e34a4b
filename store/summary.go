package store

// Summary is a live, on-demand count of a tenant's jobs grouped by
// status, as served by JobService.Metrics. It is computed fresh from the
// jobs table on every call and is distinct from the periodic snapshots
// the MetricsRollupWorker writes to the metrics table.
type Summary struct {
	TenantId  string
	Pending   int64
	Running   int64
	Completed int64
	Failed    int64
	DLQ       int64
}

// Total returns the sum of all counted statuses.
func (s *Summary) Total() int64 {
	return s.Pending + s.Running + s.Completed + s.Failed + s.DLQ
}
