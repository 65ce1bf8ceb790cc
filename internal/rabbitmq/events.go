package rabbitmq

import "time"

// Routing keys on the events exchange.
const (
	FriendRequestCreated  = "friend.request.created"
	FriendRequestDeclined = "friend.request.declined"
	FriendshipCreated     = "friendship.created"
	FriendshipRemoved     = "friendship.removed"
	BadgeAwarded          = "badge.awarded"
	UserProvisioned       = "user.provisioned"
)

type FriendRequestEvent struct {
	RequestID   int64     `json:"request_id"`
	RequesterID int64     `json:"requester_id"`
	ReceiverID  int64     `json:"receiver_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type FriendshipEvent struct {
	RequestID  int64     `json:"request_id"`
	UserID     int64     `json:"user_id"`
	FriendID   int64     `json:"friend_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type BadgeAwardedEvent struct {
	UserID   int64     `json:"user_id"`
	Code     string    `json:"code"`
	EarnedAt time.Time `json:"earned_at"`
}

type UserProvisionedEvent struct {
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
