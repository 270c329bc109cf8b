// Package queue defines message payloads exchanged over the message broker
// and the consumer that delivers them as email.
package queue

// PasswordResetQueue is the durable queue carrying reset-email requests.
const PasswordResetQueue = "email.password_reset"

// PasswordResetRequestedEvent is published when a user asks for a password
// reset. The consumer turns it into an email with the reset link; the HTTP
// request itself never waits on mail delivery.
type PasswordResetRequestedEvent struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	RequestedAt string `json:"requested_at"`
}
