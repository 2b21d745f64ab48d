package model

import "time"

// SlotLock is an advisory lock serializing approval attempts for one venue
// day window. The lock ID encodes the venue and date bucket, so racing
// approvals for overlapping ranges contend on the same document. Locks
// auto-expire via a TTL index so a crashed holder cannot wedge a window.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
