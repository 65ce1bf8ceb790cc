package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"profile-service/internal/models"
)

type BadgeRepository interface {
	ListCatalog(ctx context.Context) ([]models.Badge, error)
	GetByCode(ctx context.Context, code string) (*models.Badge, error)
	// SeedCatalog inserts the definitions whose code is not present yet and
	// reports how many were added.
	SeedCatalog(ctx context.Context, defs []models.Badge) (int, error)
	// Award inserts the award record. awarded is false when the user already
	// held the badge; the unique (user_id, badge_id) constraint decides.
	Award(ctx context.Context, userID, badgeID int64) (award *models.UserBadge, awarded bool, err error)
	ListEarned(ctx context.Context, userID int64) ([]models.EarnedBadge, error)
}

type badgeRepository struct {
	db *sqlx.DB
}

func NewBadgeRepository(db *sqlx.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) ListCatalog(ctx context.Context) ([]models.Badge, error) {
	badges := []models.Badge{}
	err := r.db.SelectContext(ctx, &badges, `SELECT id, code, name, description FROM badges ORDER BY name, id`)
	return badges, err
}

func (r *badgeRepository) GetByCode(ctx context.Context, code string) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.GetContext(ctx, &badge, `SELECT id, code, name, description FROM badges WHERE code=$1`, code); err != nil {
		return nil, translate(err)
	}
	return &badge, nil
}

func (r *badgeRepository) SeedCatalog(ctx context.Context, defs []models.Badge) (int, error) {
	created := 0
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, def := range defs {
			res, err := tx.ExecContext(ctx, `
INSERT INTO badges (code, name, description)
VALUES ($1, $2, $3)
ON CONFLICT (code) DO NOTHING
`, def.Code, def.Name, def.Description)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *badgeRepository) Award(ctx context.Context, userID, badgeID int64) (*models.UserBadge, bool, error) {
	var award models.UserBadge
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO user_badges (user_id, badge_id)
VALUES ($1, $2)
ON CONFLICT (user_id, badge_id) DO NOTHING
RETURNING id, user_id, badge_id, earned_at
`, userID, badgeID).StructScan(&award)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, translate(err)
	}
	return &award, true, nil
}

func (r *badgeRepository) ListEarned(ctx context.Context, userID int64) ([]models.EarnedBadge, error) {
	earned := []models.EarnedBadge{}
	err := r.db.SelectContext(ctx, &earned, `
SELECT b.id, b.code, b.name, b.description, ub.earned_at
FROM user_badges ub
JOIN badges b ON b.id = ub.badge_id
WHERE ub.user_id=$1
ORDER BY ub.earned_at, ub.id
`, userID)
	return earned, err
}
