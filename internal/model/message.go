package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryState is the lifecycle state of a queue message.
type DeliveryState string

const (
	StatePending   DeliveryState = "pending"
	StateInFlight  DeliveryState = "in_flight"
	StateCompleted DeliveryState = "completed"
	StateFailed    DeliveryState = "failed"
)

// Message is the durable queue envelope. It wraps exactly one raw
// submission; the payload is opaque to the queue and interpreted by the
// processing worker.
type Message struct {
	ID          uuid.UUID     `db:"id"`
	Channel     string        `db:"channel"`
	Payload     []byte        `db:"payload"`
	State       DeliveryState `db:"state"`
	Attempts    int           `db:"attempts"`
	EnqueuedAt  time.Time     `db:"enqueued_at"`
	VisibleAt   time.Time     `db:"visible_at"`
	LeasedUntil time.Time     `db:"leased_until"`
}
