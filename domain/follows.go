package domain

import (
	"time"

	"github.com/google/uuid"
)

type FollowStatus string

const (
	FollowPending  FollowStatus = "pending"
	FollowAccepted FollowStatus = "accepted"
	FollowRejected FollowStatus = "rejected"
)

// FollowRequest is the directed edge (follower, followed). At most one row
// exists per ordered pair, enforced by a unique index.
type FollowRequest struct {
	Id         uuid.UUID
	FollowerId uuid.UUID
	FollowedId uuid.UUID
	Status     FollowStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsProcessed reports whether the request reached a terminal state. A
// processed request cannot be approved or rejected again, only undone.
func (fr *FollowRequest) IsProcessed() bool {
	return fr.Status == FollowAccepted || fr.Status == FollowRejected
}

// Block hides every resource of the blocker from the blocked actor,
// regardless of visibility level.
type Block struct {
	Id        uuid.UUID
	BlockerId uuid.UUID
	BlockedId uuid.UUID
	CreatedAt time.Time
}
