// Package queue publishes audit events to RabbitMQ for downstream security
// tooling. Publishing is strictly best effort; consumers must tolerate gaps.
package queue

// AuditEvent is the wire shape published to the audit queue. Timestamps are
// RFC3339 strings so consumers in any language can parse them.
type AuditEvent struct {
	When    string `json:"when"`
	Kind    string `json:"kind"`
	Email   string `json:"email,omitempty"`
	Success bool   `json:"success"`
	IPHash  string `json:"ip_hash"`
	Reason  string `json:"reason,omitempty"`
}
