package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"profile-service/internal/metrics"
	"profile-service/internal/models"
	"profile-service/internal/rabbitmq"
	"profile-service/internal/repositories"
)

const (
	minBrowseLimit = 1
	maxBrowseLimit = 50
)

// FriendService runs the friend request state machine. Friendship is not
// stored on its own; it is the set of accepted requests.
type FriendService struct {
	users   repositories.UserRepository
	friends repositories.FriendRepository
	events  eventSink
	logger  *zap.Logger
	now     func() time.Time
}

func NewFriendService(users repositories.UserRepository, friends repositories.FriendRepository, publisher rabbitmq.Publisher, logger *zap.Logger) *FriendService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FriendService{
		users:   users,
		friends: friends,
		events:  newEventSink(publisher, logger),
		logger:  logger,
		now:     time.Now,
	}
}

// CreateRequest proposes a friendship from requesterID to targetID. Any
// existing request between the two, in either direction, is a conflict.
func (s *FriendService) CreateRequest(ctx context.Context, requesterID, targetID int64) (*models.FriendRequest, error) {
	if requesterID == targetID {
		metrics.IncFriendRequest(metrics.StatusFailed)
		return nil, newError(KindInvalidArgument, "cannot send a friend request to yourself")
	}

	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(KindNotFound, "target user not found")
		}
		return nil, err
	}

	req, err := s.friends.CreateRequest(ctx, requesterID, targetID)
	if err != nil {
		metrics.IncFriendRequest(metrics.StatusFailed)
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, wrapError(KindConflict, "friend request already exists or users are already friends", err)
		case errors.Is(err, repositories.ErrNotFound):
			// the target was deleted between the lookup and the insert
			return nil, newError(KindNotFound, "target user not found")
		}
		return nil, err
	}

	metrics.IncFriendRequest(metrics.StatusSuccess)
	s.events.publish(ctx, rabbitmq.FriendRequestCreated, rabbitmq.FriendRequestEvent{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		ReceiverID:  req.ReceiverID,
		OccurredAt:  req.CreatedAt,
	})
	return req, nil
}

func (s *FriendService) Pending(ctx context.Context, userID int64) (*models.PendingRequests, error) {
	inbound, err := s.friends.ListInbound(ctx, userID)
	if err != nil {
		return nil, err
	}
	outbound, err := s.friends.ListOutbound(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.PendingRequests{Inbound: inbound, Outbound: outbound}, nil
}

// pendingFor loads a request the actor may respond to. A request addressed to
// someone else is reported exactly like a missing one.
func (s *FriendService) pendingFor(ctx context.Context, requestID, actorID int64) (*models.FriendRequest, error) {
	req, err := s.friends.GetRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(KindNotFound, "friend request not found")
		}
		return nil, err
	}
	if req.ReceiverID != actorID {
		return nil, newError(KindNotFound, "friend request not found")
	}
	if req.Status != models.FriendPending {
		return nil, newError(KindInvalidState, "request already processed")
	}
	return req, nil
}

func (s *FriendService) Accept(ctx context.Context, requestID, actorID int64) (*models.FriendRequest, error) {
	if _, err := s.pendingFor(ctx, requestID, actorID); err != nil {
		metrics.IncFriendAccept(metrics.StatusFailed)
		return nil, err
	}

	accepted, err := s.friends.MarkAccepted(ctx, requestID, s.now().UTC())
	if err != nil {
		metrics.IncFriendAccept(metrics.StatusFailed)
		if errors.Is(err, repositories.ErrStale) {
			return nil, wrapError(KindInvalidState, "request already processed", err)
		}
		return nil, err
	}

	metrics.IncFriendAccept(metrics.StatusSuccess)
	occurred := s.now().UTC()
	if accepted.RespondedAt != nil {
		occurred = *accepted.RespondedAt
	}
	s.events.publish(ctx, rabbitmq.FriendshipCreated, rabbitmq.FriendshipEvent{
		RequestID:  accepted.ID,
		UserID:     accepted.ReceiverID,
		FriendID:   accepted.RequesterID,
		OccurredAt: occurred,
	})
	return accepted, nil
}

// Decline deletes the pending request so the pair may start over.
func (s *FriendService) Decline(ctx context.Context, requestID, actorID int64) error {
	req, err := s.pendingFor(ctx, requestID, actorID)
	if err != nil {
		metrics.IncFriendDecline(metrics.StatusFailed)
		return err
	}

	if err := s.friends.DeletePending(ctx, requestID); err != nil {
		metrics.IncFriendDecline(metrics.StatusFailed)
		if errors.Is(err, repositories.ErrStale) {
			return wrapError(KindInvalidState, "request already processed", err)
		}
		return err
	}

	metrics.IncFriendDecline(metrics.StatusSuccess)
	s.events.publish(ctx, rabbitmq.FriendRequestDeclined, rabbitmq.FriendRequestEvent{
		RequestID:   req.ID,
		RequesterID: req.RequesterID,
		ReceiverID:  req.ReceiverID,
		OccurredAt:  s.now().UTC(),
	})
	return nil
}

// Friends lists the other party of every accepted request involving userID,
// ordered by user id.
func (s *FriendService) Friends(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	ids, err := s.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	summaries := []models.UserSummary{}
	if len(ids) == 0 {
		return summaries, nil
	}

	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		summaries = append(summaries, models.Summarize(u))
	}
	return summaries, nil
}

// Remove ends the friendship between userID and otherID. Either party may
// call it.
func (s *FriendService) Remove(ctx context.Context, userID, otherID int64) error {
	requestID, err := s.friends.DeleteAccepted(ctx, userID, otherID)
	if err != nil {
		metrics.IncFriendRemoval(metrics.StatusFailed)
		if errors.Is(err, repositories.ErrNotFound) {
			return newError(KindNotFound, "friend link not found")
		}
		return err
	}

	metrics.IncFriendRemoval(metrics.StatusSuccess)
	s.events.publish(ctx, rabbitmq.FriendshipRemoved, rabbitmq.FriendshipEvent{
		RequestID:  requestID,
		UserID:     userID,
		FriendID:   otherID,
		OccurredAt: s.now().UTC(),
	})
	return nil
}

type BrowseParams struct {
	Query  string
	Offset int
	Limit  int
}

// Browse pages through other users, newest first. The caller never appears
// in the results.
func (s *FriendService) Browse(ctx context.Context, callerID int64, params BrowseParams) ([]models.UserSummary, error) {
	limit := params.Limit
	if limit < minBrowseLimit {
		limit = minBrowseLimit
	}
	if limit > maxBrowseLimit {
		limit = maxBrowseLimit
	}

	users, err := s.users.Browse(ctx, repositories.BrowseFilter{
		Query:     strings.TrimSpace(params.Query),
		Offset:    params.Offset,
		Limit:     limit,
		ExcludeID: callerID,
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		if u.ID == callerID {
			continue
		}
		summaries = append(summaries, models.Summarize(u))
	}
	return summaries, nil
}
