package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"profile-service/internal/models"
)

type ItemRepository interface {
	ListOwned(ctx context.Context, userID int64) ([]models.OwnedItem, error)
	// AddOwned records itemID for userID. Adding an item the user already
	// owns returns the existing record with created=false.
	AddOwned(ctx context.Context, userID int64, itemID string) (item *models.OwnedItem, created bool, err error)
}

type itemRepository struct {
	db *sqlx.DB
}

func NewItemRepository(db *sqlx.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) ListOwned(ctx context.Context, userID int64) ([]models.OwnedItem, error) {
	items := []models.OwnedItem{}
	err := r.db.SelectContext(ctx, &items, `
SELECT id, user_id, item_id, created_at
FROM owned_items
WHERE user_id=$1
ORDER BY created_at, id
`, userID)
	return items, err
}

func (r *itemRepository) AddOwned(ctx context.Context, userID int64, itemID string) (*models.OwnedItem, bool, error) {
	var item models.OwnedItem
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO owned_items (user_id, item_id)
VALUES ($1, $2)
ON CONFLICT (user_id, item_id) DO NOTHING
RETURNING id, user_id, item_id, created_at
`, userID, itemID).StructScan(&item)
	if err == nil {
		return &item, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, translate(err)
	}

	err = r.db.GetContext(ctx, &item, `
SELECT id, user_id, item_id, created_at
FROM owned_items
WHERE user_id=$1 AND item_id=$2
`, userID, itemID)
	if err != nil {
		return nil, false, translate(err)
	}
	return &item, false, nil
}
