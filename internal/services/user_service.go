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

const maxItemIDLength = 100

// UserService owns the local user record: lazy provisioning from a verified
// identity, the profile, coins and owned items.
type UserService struct {
	users  repositories.UserRepository
	items  repositories.ItemRepository
	events eventSink
	logger *zap.Logger
	now    func() time.Time
}

func NewUserService(users repositories.UserRepository, items repositories.ItemRepository, publisher rabbitmq.Publisher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		users:  users,
		items:  items,
		events: newEventSink(publisher, logger),
		logger: logger,
		now:    time.Now,
	}
}

// Resolve returns the local user for a verified subject, creating it on
// first sight. A picture carried by the token replaces the stored one when
// they differ.
func (s *UserService) Resolve(ctx context.Context, subject string, picture *string) (*models.User, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, newError(KindUnauthorized, "token has no subject")
	}

	user, err := s.users.GetBySubject(ctx, subject)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		user, err = s.users.CreateFromIdentity(ctx, subject, picture)
		if err != nil {
			return nil, err
		}
		metrics.IncUserProvisioned()
		s.logger.Info("provisioned user", zap.Int64("user_id", user.ID))
		s.events.publish(ctx, rabbitmq.UserProvisioned, rabbitmq.UserProvisionedEvent{
			UserID:     user.ID,
			OccurredAt: s.now().UTC(),
		})
		return user, nil
	default:
		return nil, err
	}

	if picture != nil && *picture != "" && (user.PictureURL == nil || *user.PictureURL != *picture) {
		if err := s.users.UpdatePicture(ctx, user.ID, *picture); err != nil {
			s.logger.Warn("failed to refresh picture", zap.Int64("user_id", user.ID), zap.Error(err))
		} else {
			user.PictureURL = picture
		}
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(KindNotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := models.ProfileOf(*user)
	return &profile, nil
}

// PublicProfile is the summary another player sees.
func (s *UserService) PublicProfile(ctx context.Context, userID int64) (*models.UserSummary, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := models.Summarize(*user)
	return &summary, nil
}

// UpdateProfile applies the non-nil fields of update. An empty update leaves
// the record untouched and returns it.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, update models.ProfileUpdate) (*models.Profile, error) {
	if update.Empty() {
		return s.Profile(ctx, userID)
	}
	if update.DisplayName != nil {
		trimmed := strings.TrimSpace(*update.DisplayName)
		update.DisplayName = &trimmed
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(KindNotFound, "user not found")
		}
		return nil, err
	}
	profile := models.ProfileOf(*user)
	return &profile, nil
}

func (s *UserService) Coins(ctx context.Context, userID int64) (int64, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Coins, nil
}

// IncrementCoins adds a signed amount to the balance in one statement.
func (s *UserService) IncrementCoins(ctx context.Context, userID, amount int64) (int64, error) {
	coins, err := s.users.IncrementCoins(ctx, userID, amount)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, newError(KindNotFound, "user not found")
		}
		return 0, err
	}
	return coins, nil
}

func (s *UserService) SetCoins(ctx context.Context, userID, coins int64) (int64, error) {
	updated, err := s.users.SetCoins(ctx, userID, coins)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, newError(KindNotFound, "user not found")
		}
		return 0, err
	}
	return updated, nil
}

func (s *UserService) OwnedItems(ctx context.Context, userID int64) ([]models.OwnedItem, error) {
	return s.items.ListOwned(ctx, userID)
}

// AddOwnedItem records ownership of itemID. Adding an owned item again
// returns the original record with created=false.
func (s *UserService) AddOwnedItem(ctx context.Context, userID int64, itemID string) (*models.OwnedItem, bool, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" || len(itemID) > maxItemIDLength {
		return nil, false, newError(KindInvalidArgument, "item_id must be 1 to 100 characters")
	}
	item, created, err := s.items.AddOwned(ctx, userID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, false, newError(KindNotFound, "user not found")
		}
		return nil, false, err
	}
	return item, created, nil
}
