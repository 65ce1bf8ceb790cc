package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"profile-service/internal/auth"
	"profile-service/internal/models"
	"profile-service/internal/rabbitmq"
	"profile-service/internal/repositories"
)

// MockVerifier mocks token verification for middleware tests.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (*auth.Identity, error) {
	args := m.Called(ctx, token)
	var id *auth.Identity
	if val := args.Get(0); val != nil {
		id = val.(*auth.Identity)
	}
	return id, args.Error(1)
}

var _ auth.Verifier = (*MockVerifier)(nil)

// MockUserRepository mocks UserRepository behavior for services.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	var u *models.User
	if val := args.Get(0); val != nil {
		u = val.(*models.User)
	}
	return u, args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	return m.user(m.Called(ctx, subject))
}

func (m *MockUserRepository) CreateFromIdentity(ctx context.Context, subject string, pictureURL *string) (*models.User, error) {
	return m.user(m.Called(ctx, subject, pictureURL))
}

func (m *MockUserRepository) UpdatePicture(ctx context.Context, id int64, pictureURL string) error {
	args := m.Called(ctx, id, pictureURL)
	return args.Error(0)
}

func (m *MockUserRepository) ListByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) Browse(ctx context.Context, filter repositories.BrowseFilter) ([]models.User, error) {
	args := m.Called(ctx, filter)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id int64, update models.ProfileUpdate) (*models.User, error) {
	return m.user(m.Called(ctx, id, update))
}

func (m *MockUserRepository) IncrementCoins(ctx context.Context, id int64, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) SetCoins(ctx context.Context, id int64, coins int64) (int64, error) {
	args := m.Called(ctx, id, coins)
	return args.Get(0).(int64), args.Error(1)
}

var _ repositories.UserRepository = (*MockUserRepository)(nil)

// MockBadgeRepository mocks BadgeRepository behavior for services.
type MockBadgeRepository struct {
	mock.Mock
}

func (m *MockBadgeRepository) ListCatalog(ctx context.Context) ([]models.Badge, error) {
	args := m.Called(ctx)
	var badges []models.Badge
	if val := args.Get(0); val != nil {
		badges = val.([]models.Badge)
	}
	return badges, args.Error(1)
}

func (m *MockBadgeRepository) GetByCode(ctx context.Context, code string) (*models.Badge, error) {
	args := m.Called(ctx, code)
	var badge *models.Badge
	if val := args.Get(0); val != nil {
		badge = val.(*models.Badge)
	}
	return badge, args.Error(1)
}

func (m *MockBadgeRepository) SeedCatalog(ctx context.Context, defs []models.Badge) (int, error) {
	args := m.Called(ctx, defs)
	return args.Int(0), args.Error(1)
}

func (m *MockBadgeRepository) Award(ctx context.Context, userID, badgeID int64) (*models.UserBadge, bool, error) {
	args := m.Called(ctx, userID, badgeID)
	var award *models.UserBadge
	if val := args.Get(0); val != nil {
		award = val.(*models.UserBadge)
	}
	return award, args.Bool(1), args.Error(2)
}

func (m *MockBadgeRepository) ListEarned(ctx context.Context, userID int64) ([]models.EarnedBadge, error) {
	args := m.Called(ctx, userID)
	var badges []models.EarnedBadge
	if val := args.Get(0); val != nil {
		badges = val.([]models.EarnedBadge)
	}
	return badges, args.Error(1)
}

var _ repositories.BadgeRepository = (*MockBadgeRepository)(nil)

// MockFriendRepository mocks FriendRepository behavior for handlers and services.
type MockFriendRepository struct {
	mock.Mock
}

func (m *MockFriendRepository) request(args mock.Arguments) (*models.FriendRequest, error) {
	var req *models.FriendRequest
	if val := args.Get(0); val != nil {
		req = val.(*models.FriendRequest)
	}
	return req, args.Error(1)
}

func (m *MockFriendRepository) requests(args mock.Arguments) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	if val := args.Get(0); val != nil {
		reqs = val.([]models.FriendRequest)
	}
	return reqs, args.Error(1)
}

func (m *MockFriendRepository) CreateRequest(ctx context.Context, requesterID, receiverID int64) (*models.FriendRequest, error) {
	return m.request(m.Called(ctx, requesterID, receiverID))
}

func (m *MockFriendRepository) GetRequest(ctx context.Context, requestID int64) (*models.FriendRequest, error) {
	return m.request(m.Called(ctx, requestID))
}

func (m *MockFriendRepository) ListInbound(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	return m.requests(m.Called(ctx, userID))
}

func (m *MockFriendRepository) ListOutbound(ctx context.Context, userID int64) ([]models.FriendRequest, error) {
	return m.requests(m.Called(ctx, userID))
}

func (m *MockFriendRepository) MarkAccepted(ctx context.Context, requestID int64, respondedAt time.Time) (*models.FriendRequest, error) {
	return m.request(m.Called(ctx, requestID, respondedAt))
}

func (m *MockFriendRepository) DeletePending(ctx context.Context, requestID int64) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

func (m *MockFriendRepository) DeleteAccepted(ctx context.Context, a, b int64) (int64, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFriendRepository) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	args := m.Called(ctx, userID)
	var ids []int64
	if val := args.Get(0); val != nil {
		ids = val.([]int64)
	}
	return ids, args.Error(1)
}

var _ repositories.FriendRepository = (*MockFriendRepository)(nil)

// MockPublisher mocks RabbitMQ publisher behavior for events and telemetry.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ rabbitmq.Publisher = (*MockPublisher)(nil)
