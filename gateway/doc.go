// Package gateway accepts long-lived WebSocket connections from
// external observers (dashboards) and pumps one eventbus.Subscription's
// events outward per connection.
//
// The gateway applies no filtering of its own beyond an optional
// tenant_id query parameter; it is the boundary spec.md §4.7 describes
// as the place tenant scoping belongs, if a deployment wants it, since
// the core EventBus itself does not scope by tenant.
package gateway
