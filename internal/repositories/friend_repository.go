package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"profile-service/internal/models"
)

const friendRequestColumns = `id, requester_id, receiver_id, status, created_at, responded_at`

type FriendRepository interface {
	// CreateRequest inserts a pending request. ErrDuplicate means a request
	// already exists for the unordered pair, in either direction and in any
	// status.
	CreateRequest(ctx context.Context, requesterID, receiverID int64) (*models.FriendRequest, error)
	GetRequest(ctx context.Context, requestID int64) (*models.FriendRequest, error)
	ListInbound(ctx context.Context, userID int64) ([]models.FriendRequest, error)
	ListOutbound(ctx context.Context, userID int64) ([]models.FriendRequest, error)
	// MarkAccepted moves a pending request to accepted. ErrStale means the
	// request is no longer pending.
	MarkAccepted(ctx context.Context, requestID int64, respondedAt time.Time) (*models.FriendRequest, error)
	// DeletePending removes a pending request. ErrStale means it is gone or
	// no longer pending.
	DeletePending(ctx context.Context, requestID int64) error
	// DeleteAccepted removes the accepted request linking a and b and returns
	// its id. ErrNotFound means the two users are not friends.
	DeleteAccepted(ctx context.Context, a, b int64) (int64, error)
	// ListFriendIDs returns the other party of every accepted request that
	// involves userID.
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)
}

type friendRepository struct {
	db *sqlx.DB
}

func NewFriendRepository(db *sqlx.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) CreateRequest(ctx context.Context, requesterID, receiverID int64) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO friend_requests (requester_id, receiver_id, status)
VALUES ($1, $2, 'pending')
RETURNING `+friendRequestColumns, requesterID, receiverID).StructScan(&req)
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *friendRepository) GetRequest(ctx context.Context, requestID int64) (*models.FriendRequest, error) {
	var req models.FriendRequest
	if err := r.db.GetContext(ctx, &req, `SELECT `+friendRequestColumns+` FROM friend_requests WHERE id=$1`, requestID); err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *friendRepository) ListInbound(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	reqs := []models.FriendRequest{}
	err := r.db.SelectContext(ctx, &reqs, `
SELECT `+friendRequestColumns+`
FROM friend_requests
WHERE receiver_id=$1 AND status='pending'
ORDER BY created_at, id
`, userID)
	return reqs, err
}

func (r *friendRepository) ListOutbound(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	reqs := []models.FriendRequest{}
	err := r.db.SelectContext(ctx, &reqs, `
SELECT `+friendRequestColumns+`
FROM friend_requests
WHERE requester_id=$1 AND status='pending'
ORDER BY created_at, id
`, userID)
	return reqs, err
}

func (r *friendRepository) MarkAccepted(ctx context.Context, requestID int64, respondedAt time.Time) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.QueryRowxContext(ctx, `
UPDATE friend_requests SET status='accepted', responded_at=$2
WHERE id=$1 AND status='pending'
RETURNING `+friendRequestColumns, requestID, respondedAt).StructScan(&req)
	if err != nil {
		if translate(err) == ErrNotFound {
			return nil, ErrStale
		}
		return nil, err
	}
	return &req, nil
}

func (r *friendRepository) DeletePending(ctx context.Context, requestID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id=$1 AND status='pending'`, requestID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrStale
	}
	return nil
}

func (r *friendRepository) DeleteAccepted(ctx context.Context, a, b int64) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `
DELETE FROM friend_requests
WHERE status='accepted'
AND ((requester_id=$1 AND receiver_id=$2) OR (requester_id=$2 AND receiver_id=$1))
RETURNING id
`, a, b)
	if err != nil {
		return 0, translate(err)
	}
	return id, nil
}

func (r *friendRepository) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	friends := []int64{}
	err := r.db.SelectContext(ctx, &friends, `
SELECT CASE WHEN requester_id=$1 THEN receiver_id ELSE requester_id END AS friend_id
FROM friend_requests
WHERE status='accepted' AND (requester_id=$1 OR receiver_id=$1)
ORDER BY friend_id
`, userID)
	return friends, err
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
