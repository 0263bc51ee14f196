// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredQueue is the durable queue new-account events are
// published to.
const UserRegisteredQueue = "user.registered"

// UserRegisteredEvent is published when a registration succeeds.
// It carries enough for downstream consumers (welcome mail,
// analytics) without querying the primary database. The password
// hash is deliberately absent.
type UserRegisteredEvent struct {
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	IsBreederProfile bool   `json:"is_breeder_profile"`
	RegisteredAt     string `json:"registered_at"` // RFC 3339 UTC
}
