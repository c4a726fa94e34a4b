// Package tenant defines the isolated principal a Job belongs to: its
// credential and its admission limits.
package tenant

import "time"

// Tenant is created out-of-band (by an operator tool, not by this
// package) and read by JobService on every submission.
//
// APIKey is stored and compared in cleartext. This is a known weakness
// inherited from the source system being modeled, not an oversight: see
// DESIGN.md's record of this open question. A hardened deployment should
// store a salted hash and compare it in constant time instead.
type Tenant struct {
	TenantId           string
	APIKey             string
	MaxConcurrentJobs  int
	RateLimitPerMinute int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
