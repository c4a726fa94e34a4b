// Package internal provides the generic scheduling primitives shared by
// Worker, WorkerPool, and the metrics roll-up worker: a periodic-task
// runner (TimerTask), a bounded fixed-size worker pool (WorkerPool[T]),
// and a small helper for joining shutdown signals (DoneChan).
//
// None of these types know about jobs, tenants, or the store; they are
// deliberately domain-free so every periodic background task in this
// module (lease reaping, metrics roll-up, retention cleanup) can share
// one well-tested implementation of "run this on an interval" and "fan
// work out across N goroutines, then drain on shutdown."
package internal
