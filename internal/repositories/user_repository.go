package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"profile-service/internal/models"
)

const userColumns = `id, auth0_sub, coins, display_name, bio, profile_background, picture_url, showcased_badges, created_at`

type BrowseFilter struct {
	Query     string
	Offset    int
	Limit     int
	ExcludeID int64
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetBySubject(ctx context.Context, subject string) (*models.User, error)
	CreateFromIdentity(ctx context.Context, subject string, pictureURL *string) (*models.User, error)
	UpdatePicture(ctx context.Context, id int64, pictureURL string) error
	ListByIDs(ctx context.Context, ids []int64) ([]models.User, error)
	Browse(ctx context.Context, filter BrowseFilter) ([]models.User, error)
	UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) (*models.User, error)
	IncrementCoins(ctx context.Context, id int64, amount int64) (int64, error)
	SetCoins(ctx context.Context, id int64, coins int64) (int64, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE auth0_sub=$1`, subject)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// CreateFromIdentity inserts a user for subject, or returns the existing row
// when a concurrent request provisioned it first.
func (r *userRepository) CreateFromIdentity(ctx context.Context, subject string, pictureURL *string) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `
INSERT INTO users (auth0_sub, coins, picture_url)
VALUES ($1, 0, $2)
ON CONFLICT (auth0_sub) DO UPDATE SET auth0_sub = EXCLUDED.auth0_sub
RETURNING `+userColumns, subject, pictureURL).StructScan(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) UpdatePicture(ctx context.Context, id int64, pictureURL string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET picture_url=$2 WHERE id=$1`, id, pictureURL)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users WHERE id = ANY($1) ORDER BY id`, pq.Array(ids))
	return users, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *userRepository) Browse(ctx context.Context, filter BrowseFilter) ([]models.User, error) {
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	users := []models.User{}
	var err error
	if filter.Query == "" {
		err = r.db.SelectContext(ctx, &users, `
SELECT `+userColumns+`
FROM users
WHERE id <> $1
ORDER BY id DESC
OFFSET $2 LIMIT $3
`, filter.ExcludeID, offset, filter.Limit)
	} else {
		pattern := "%" + likeEscaper.Replace(filter.Query) + "%"
		err = r.db.SelectContext(ctx, &users, `
SELECT `+userColumns+`
FROM users
WHERE id <> $1 AND (display_name ILIKE $2 OR bio ILIKE $2)
ORDER BY id DESC
OFFSET $3 LIMIT $4
`, filter.ExcludeID, pattern, offset, filter.Limit)
	}
	return users, err
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) (*models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `
UPDATE users SET
	display_name = COALESCE($2, display_name),
	bio = COALESCE($3, bio),
	profile_background = COALESCE($4, profile_background),
	showcased_badges = COALESCE($5, showcased_badges),
	picture_url = COALESCE($6, picture_url)
WHERE id=$1
RETURNING `+userColumns,
		id, update.DisplayName, update.Bio, update.ProfileBackground, update.ShowcasedBadges, update.PictureURL,
	).StructScan(&user)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) IncrementCoins(ctx context.Context, id int64, amount int64) (int64, error) {
	var coins int64
	err := r.db.GetContext(ctx, &coins, `UPDATE users SET coins = coins + $2 WHERE id=$1 RETURNING coins`, id, amount)
	if err != nil {
		return 0, translate(err)
	}
	return coins, nil
}

func (r *userRepository) SetCoins(ctx context.Context, id int64, coins int64) (int64, error) {
	var updated int64
	err := r.db.GetContext(ctx, &updated, `UPDATE users SET coins = $2 WHERE id=$1 RETURNING coins`, id, coins)
	if err != nil {
		return 0, translate(err)
	}
	return updated, nil
}
