// Package store defines the durable persistence contract for jobs,
// tenants, and dead-letter entries. A concrete implementation lives in
// the sibling sql package; this package only declares the interface and
// the sentinel errors its methods return, so Worker, JobService, and
// their tests depend on a contract rather than a driver.
package store
