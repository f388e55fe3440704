// Package audit records who changed what, and why, for every entitlement
// mutation. Events are transport-agnostic so stores and sinks can fan out.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "rosterd/pkg/domain"
)

// Action identifies the kind of audited operation.
type Action string

const (
	ActionSanityRepair Action = "sanity_repair"
)

// Event is one append-only audit record. ActorID is who performed the
// change; PersonID is whose entitlements changed.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	ActorID   string      `json:"actor_id"`
	PersonID  id.PersonID `json:"person_id"`
	Action    Action      `json:"action"`
	Reason    string      `json:"reason"`
	Details   []string    `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}
