// Package eventbus is an in-process, best-effort publish/subscribe bus
// for job lifecycle events. Publishing never blocks the caller and never
// fails: a slow or absent subscriber only loses events, it never backs up
// the Worker or JobService that produced them.
package eventbus
