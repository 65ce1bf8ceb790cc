package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// FriendStatus is the state of a stored friend request. Declined and removed
// requests are deleted, so there is no third value.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
)

func ParseFriendStatus(s string) (FriendStatus, error) {
	switch FriendStatus(s) {
	case FriendPending, FriendAccepted:
		return FriendStatus(s), nil
	}
	return "", fmt.Errorf("unknown friend request status %q", s)
}

func (s *FriendStatus) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into FriendStatus", src)
	}
	parsed, err := ParseFriendStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s FriendStatus) Value() (driver.Value, error) {
	if _, err := ParseFriendStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// FriendRequest is a directional proposal from requester to receiver.
// RespondedAt is set exactly when Status is accepted.
type FriendRequest struct {
	ID          int64        `db:"id" json:"id"`
	RequesterID int64        `db:"requester_id" json:"requester_id"`
	ReceiverID  int64        `db:"receiver_id" json:"receiver_id"`
	Status      FriendStatus `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	RespondedAt *time.Time   `db:"responded_at" json:"responded_at"`
}

// Other returns the party of r that is not userID.
func (r FriendRequest) Other(userID int64) int64 {
	if r.RequesterID == userID {
		return r.ReceiverID
	}
	return r.RequesterID
}

type PendingRequests struct {
	Inbound  []FriendRequest `json:"inbound"`
	Outbound []FriendRequest `json:"outbound"`
}
