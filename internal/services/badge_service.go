package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"profile-service/internal/cache"
	"profile-service/internal/metrics"
	"profile-service/internal/models"
	"profile-service/internal/rabbitmq"
	"profile-service/internal/repositories"
)

func strPtr(s string) *string { return &s }

// DefaultBadges is the catalog seeded at startup.
var DefaultBadges = []models.Badge{
	{Code: "FIRST_STEPS", Name: "First Steps", Description: strPtr("Complete your first minigame.")},
	{Code: "PERFECT_10", Name: "Perfect 10", Description: strPtr("Beat 10 minigames in a row without losing a life.")},
	{Code: "COIN_COLLECTOR", Name: "Coin Collector", Description: strPtr("Earn 50 coins in a single run.")},
	{Code: "SPEED_DEMON", Name: "Speed Demon", Description: strPtr("Complete a minigame with more than 5 seconds remaining.")},
	{Code: "SURVIVOR", Name: "Survivor", Description: strPtr("Complete 20 minigames in a single run.")},
}

// BadgeService records badge awards. It only records the fact of an award;
// deciding when a badge is earned is up to the game client.
type BadgeService struct {
	badges  repositories.BadgeRepository
	catalog cache.CatalogCache
	events  eventSink
	logger  *zap.Logger
}

func NewBadgeService(badges repositories.BadgeRepository, catalog cache.CatalogCache, publisher rabbitmq.Publisher, logger *zap.Logger) *BadgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = cache.NewNoopCatalogCache()
	}
	return &BadgeService{
		badges:  badges,
		catalog: catalog,
		events:  newEventSink(publisher, logger),
		logger:  logger,
	}
}

// Seed inserts any definitions whose code is missing. A blank name falls
// back to the title-cased code.
func (s *BadgeService) Seed(ctx context.Context, defs []models.Badge) error {
	if len(defs) == 0 {
		return nil
	}
	normalized := make([]models.Badge, 0, len(defs))
	for _, def := range defs {
		if strings.TrimSpace(def.Code) == "" {
			return newError(KindInvalidArgument, "badge code is required")
		}
		if strings.TrimSpace(def.Name) == "" {
			def.Name = titleCode(def.Code)
		}
		normalized = append(normalized, def)
	}

	created, err := s.badges.SeedCatalog(ctx, normalized)
	if err != nil {
		return err
	}
	if created > 0 {
		s.logger.Info("seeded badge catalog", zap.Int("created", created))
		if err := s.catalog.Invalidate(ctx); err != nil {
			s.logger.Warn("failed to invalidate badge catalog cache", zap.Error(err))
		}
	}
	return nil
}

func titleCode(code string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(code), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Catalog returns every badge definition sorted by name.
func (s *BadgeService) Catalog(ctx context.Context) ([]models.Badge, error) {
	badges, ok, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		s.logger.Warn("badge catalog cache read failed", zap.Error(err))
	}
	if ok {
		return badges, nil
	}

	badges, err = s.badges.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.SetCatalog(ctx, badges); err != nil {
		s.logger.Warn("badge catalog cache write failed", zap.Error(err))
	}
	return badges, nil
}

// Award gives the badge identified by code to userID. A repeated award is a
// no-op reported as AwardExists.
func (s *BadgeService) Award(ctx context.Context, userID int64, code string) (*models.AwardResult, error) {
	badge, err := s.badges.GetByCode(ctx, code)
	if err != nil {
		metrics.IncBadgeAward(metrics.StatusFailed)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(KindNotFound, "badge not found")
		}
		return nil, err
	}

	award, awarded, err := s.badges.Award(ctx, userID, badge.ID)
	if err != nil {
		metrics.IncBadgeAward(metrics.StatusFailed)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(KindNotFound, "user not found")
		}
		return nil, err
	}
	if !awarded {
		metrics.IncBadgeAward(metrics.StatusExists)
		return &models.AwardResult{Status: models.AwardExists, Code: badge.Code}, nil
	}

	metrics.IncBadgeAward(metrics.StatusSuccess)
	s.events.publish(ctx, rabbitmq.BadgeAwarded, rabbitmq.BadgeAwardedEvent{
		UserID:   userID,
		Code:     badge.Code,
		EarnedAt: award.EarnedAt,
	})
	return &models.AwardResult{Status: models.AwardAwarded, Code: badge.Code}, nil
}

// Earned returns the badges userID holds, earliest award first.
func (s *BadgeService) Earned(ctx context.Context, userID int64) ([]models.EarnedBadge, error) {
	return s.badges.ListEarned(ctx, userID)
}
