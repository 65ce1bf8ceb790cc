// Package testutil provides an in-memory store that implements the
// repository interfaces and enforces the same uniqueness rules as the
// Postgres schema.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"profile-service/internal/models"
	"profile-service/internal/repositories"
)

type pairKey struct{ lo, hi int64 }

func keyOf(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type awardKey struct{ userID, badgeID int64 }

type itemKey struct {
	userID int64
	itemID string
}

// Store is safe for concurrent use. UserQueries counts calls that read the
// users table by id list or page, so tests can assert that no lookup happened.
type Store struct {
	mu sync.Mutex

	nextID int64
	now    func() time.Time

	users      map[int64]*models.User
	bySubject  map[string]int64
	items      map[itemKey]*models.OwnedItem
	badges     map[int64]*models.Badge
	badgeCodes map[string]int64
	awards     map[awardKey]*models.UserBadge
	requests   map[int64]*models.FriendRequest
	pairs      map[pairKey]int64

	UserQueries int
}

func NewStore() *Store {
	return &Store{
		now:        time.Now,
		users:      map[int64]*models.User{},
		bySubject:  map[string]int64{},
		items:      map[itemKey]*models.OwnedItem{},
		badges:     map[int64]*models.Badge{},
		badgeCodes: map[string]int64{},
		awards:     map[awardKey]*models.UserBadge{},
		requests:   map[int64]*models.FriendRequest{},
		pairs:      map[pairKey]int64{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// tick returns strictly increasing timestamps so ordering by time is stable.
func (s *Store) tick() time.Time {
	return s.now().UTC().Add(time.Duration(s.nextID) * time.Microsecond)
}

// AddUser creates a user directly, bypassing identity provisioning. Blank
// fields are stored as NULL.
func (s *Store) AddUser(displayName, bio string) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: s.id(), CreatedAt: s.tick()}
	u.Auth0Sub = fmt.Sprintf("test|%d", u.ID)
	if displayName != "" {
		u.DisplayName = &displayName
	}
	if bio != "" {
		u.Bio = &bio
	}
	s.users[u.ID] = u
	s.bySubject[u.Auth0Sub] = u.ID
	cp := *u
	return &cp
}

// RequestCount reports how many friend request rows are stored.
func (s *Store) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// AwardCount reports how many award rows userID holds.
func (s *Store) AwardCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.awards {
		if k.userID == userID {
			n++
		}
	}
	return n
}

// Users returns a UserRepository backed by the store.
func (s *Store) Users() repositories.UserRepository { return userStore{s} }

func (s *Store) Items() repositories.ItemRepository { return itemStore{s} }

func (s *Store) Badges() repositories.BadgeRepository { return badgeStore{s} }

func (s *Store) Friends() repositories.FriendRepository { return friendStore{s} }

type userStore struct{ s *Store }

func (r userStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userStore) GetBySubject(_ context.Context, subject string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.bySubject[subject]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r.s.users[id]
	return &cp, nil
}

func (r userStore) CreateFromIdentity(_ context.Context, subject string, pictureURL *string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if id, ok := r.s.bySubject[subject]; ok {
		cp := *r.s.users[id]
		return &cp, nil
	}
	u := &models.User{ID: r.s.id(), Auth0Sub: subject, PictureURL: pictureURL, CreatedAt: r.s.tick()}
	r.s.users[u.ID] = u
	r.s.bySubject[subject] = u.ID
	cp := *u
	return &cp, nil
}

func (r userStore) UpdatePicture(_ context.Context, id int64, pictureURL string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PictureURL = &pictureURL
	return nil
}

func (r userStore) ListByIDs(_ context.Context, ids []int64) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.UserQueries++
	out := []models.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func contains(field *string, query string) bool {
	return field != nil && strings.Contains(strings.ToLower(*field), strings.ToLower(query))
}

func (r userStore) Browse(_ context.Context, filter repositories.BrowseFilter) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.UserQueries++
	matched := []models.User{}
	for _, u := range r.s.users {
		if u.ID == filter.ExcludeID {
			continue
		}
		if filter.Query != "" && !contains(u.DisplayName, filter.Query) && !contains(u.Bio, filter.Query) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []models.User{}, nil
	}
	end := offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r userStore) UpdateProfile(_ context.Context, id int64, update models.ProfileUpdate) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if update.DisplayName != nil {
		u.DisplayName = update.DisplayName
	}
	if update.Bio != nil {
		u.Bio = update.Bio
	}
	if update.ProfileBackground != nil {
		u.ProfileBackground = update.ProfileBackground
	}
	if update.ShowcasedBadges != nil {
		u.ShowcasedBadges = update.ShowcasedBadges
	}
	if update.PictureURL != nil {
		u.PictureURL = update.PictureURL
	}
	cp := *u
	return &cp, nil
}

func (r userStore) IncrementCoins(_ context.Context, id int64, amount int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	u.Coins += amount
	return u.Coins, nil
}

func (r userStore) SetCoins(_ context.Context, id int64, coins int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	u.Coins = coins
	return u.Coins, nil
}

type itemStore struct{ s *Store }

func (r itemStore) ListOwned(_ context.Context, userID int64) ([]models.OwnedItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.OwnedItem{}
	for k, item := range r.s.items {
		if k.userID == userID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r itemStore) AddOwned(_ context.Context, userID int64, itemID string) (*models.OwnedItem, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return nil, false, repositories.ErrNotFound
	}
	key := itemKey{userID: userID, itemID: itemID}
	if existing, ok := r.s.items[key]; ok {
		cp := *existing
		return &cp, false, nil
	}
	item := &models.OwnedItem{ID: r.s.id(), UserID: userID, ItemID: itemID, CreatedAt: r.s.tick()}
	r.s.items[key] = item
	cp := *item
	return &cp, true, nil
}

type badgeStore struct{ s *Store }

func (r badgeStore) ListCatalog(_ context.Context) ([]models.Badge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Badge{}
	for _, b := range r.s.badges {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r badgeStore) GetByCode(_ context.Context, code string) (*models.Badge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.badgeCodes[code]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r.s.badges[id]
	return &cp, nil
}

func (r badgeStore) SeedCatalog(_ context.Context, defs []models.Badge) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := 0
	for _, def := range defs {
		if _, ok := r.s.badgeCodes[def.Code]; ok {
			continue
		}
		b := def
		b.ID = r.s.id()
		r.s.badges[b.ID] = &b
		r.s.badgeCodes[b.Code] = b.ID
		created++
	}
	return created, nil
}

func (r badgeStore) Award(_ context.Context, userID, badgeID int64) (*models.UserBadge, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return nil, false, repositories.ErrNotFound
	}
	if _, ok := r.s.badges[badgeID]; !ok {
		return nil, false, repositories.ErrNotFound
	}
	key := awardKey{userID: userID, badgeID: badgeID}
	if _, ok := r.s.awards[key]; ok {
		return nil, false, nil
	}
	award := &models.UserBadge{ID: r.s.id(), UserID: userID, BadgeID: badgeID, EarnedAt: r.s.tick()}
	r.s.awards[key] = award
	cp := *award
	return &cp, true, nil
}

func (r badgeStore) ListEarned(_ context.Context, userID int64) ([]models.EarnedBadge, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	type row struct {
		id     int64
		earned models.EarnedBadge
	}
	rows := []row{}
	for k, award := range r.s.awards {
		if k.userID != userID {
			continue
		}
		rows = append(rows, row{id: award.ID, earned: models.EarnedBadge{Badge: *r.s.badges[k.badgeID], EarnedAt: award.EarnedAt}})
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].earned.EarnedAt.Equal(rows[j].earned.EarnedAt) {
			return rows[i].earned.EarnedAt.Before(rows[j].earned.EarnedAt)
		}
		return rows[i].id < rows[j].id
	})
	out := make([]models.EarnedBadge, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.earned)
	}
	return out, nil
}

type friendStore struct{ s *Store }

func (r friendStore) CreateRequest(_ context.Context, requesterID, receiverID int64) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[receiverID]; !ok {
		return nil, repositories.ErrNotFound
	}
	key := keyOf(requesterID, receiverID)
	if _, ok := r.s.pairs[key]; ok {
		return nil, repositories.ErrDuplicate
	}
	req := &models.FriendRequest{
		ID:          r.s.id(),
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.FriendPending,
		CreatedAt:   r.s.tick(),
	}
	r.s.requests[req.ID] = req
	r.s.pairs[key] = req.ID
	cp := *req
	return &cp, nil
}

func (r friendStore) GetRequest(_ context.Context, requestID int64) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[requestID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r friendStore) list(match func(*models.FriendRequest) bool) []models.FriendRequest {
	out := []models.FriendRequest{}
	for _, req := range r.s.requests {
		if req.Status == models.FriendPending && match(req) {
			out = append(out, *req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r friendStore) ListInbound(_ context.Context, userID int64) ([]models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(req *models.FriendRequest) bool { return req.ReceiverID == userID }), nil
}

func (r friendStore) ListOutbound(_ context.Context, userID int64) ([]models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(req *models.FriendRequest) bool { return req.RequesterID == userID }), nil
}

func (r friendStore) MarkAccepted(_ context.Context, requestID int64, respondedAt time.Time) (*models.FriendRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[requestID]
	if !ok || req.Status != models.FriendPending {
		return nil, repositories.ErrStale
	}
	req.Status = models.FriendAccepted
	req.RespondedAt = &respondedAt
	cp := *req
	return &cp, nil
}

func (r friendStore) DeletePending(_ context.Context, requestID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[requestID]
	if !ok || req.Status != models.FriendPending {
		return repositories.ErrStale
	}
	delete(r.s.requests, requestID)
	delete(r.s.pairs, keyOf(req.RequesterID, req.ReceiverID))
	return nil
}

func (r friendStore) DeleteAccepted(_ context.Context, a, b int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := keyOf(a, b)
	id, ok := r.s.pairs[key]
	if !ok || r.s.requests[id].Status != models.FriendAccepted {
		return 0, repositories.ErrNotFound
	}
	delete(r.s.requests, id)
	delete(r.s.pairs, key)
	return id, nil
}

func (r friendStore) ListFriendIDs(_ context.Context, userID int64) ([]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []int64{}
	for _, req := range r.s.requests {
		if req.Status != models.FriendAccepted {
			continue
		}
		if req.RequesterID == userID || req.ReceiverID == userID {
			ids = append(ids, req.Other(userID))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
