package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"profile-service/internal/cache"
	"profile-service/internal/mocks"
	"profile-service/internal/models"
	"profile-service/internal/rabbitmq"
	"profile-service/internal/testutil"
)

func newBadgeFixture(t *testing.T) (*BadgeService, *testutil.Store) {
	t.Helper()
	store := testutil.NewStore()
	svc := NewBadgeService(store.Badges(), nil, nil, nil)
	require.NoError(t, svc.Seed(context.Background(), DefaultBadges))
	return svc, store
}

func TestAward_Idempotent(t *testing.T) {
	svc, store := newBadgeFixture(t)
	ctx := context.Background()
	u := store.AddUser("Alice", "")

	first, err := svc.Award(ctx, u.ID, "PERFECT_10")
	require.NoError(t, err)
	assert.Equal(t, models.AwardAwarded, first.Status)
	assert.Equal(t, "PERFECT_10", first.Code)

	second, err := svc.Award(ctx, u.ID, "PERFECT_10")
	require.NoError(t, err)
	assert.Equal(t, models.AwardExists, second.Status)

	assert.Equal(t, 1, store.AwardCount(u.ID))
}

func TestAward_ConcurrentCallsAwardOnce(t *testing.T) {
	svc, store := newBadgeFixture(t)
	u := store.AddUser("Alice", "")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		awarded int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Award(context.Background(), u.ID, "SURVIVOR")
			if !assert.NoError(t, err) {
				return
			}
			if res.Status == models.AwardAwarded {
				mu.Lock()
				awarded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, awarded)
	assert.Equal(t, 1, store.AwardCount(u.ID))
}

func TestAward_UnknownCode(t *testing.T) {
	svc, store := newBadgeFixture(t)
	u := store.AddUser("Alice", "")

	_, err := svc.Award(context.Background(), u.ID, "NOPE")
	assert.True(t, IsKind(err, KindNotFound))
	assert.Equal(t, 0, store.AwardCount(u.ID))
}

func TestEarned_OrderedByAwardTime(t *testing.T) {
	svc, store := newBadgeFixture(t)
	ctx := context.Background()
	u := store.AddUser("Alice", "")

	for _, code := range []string{"SURVIVOR", "FIRST_STEPS", "COIN_COLLECTOR"} {
		_, err := svc.Award(ctx, u.ID, code)
		require.NoError(t, err)
	}

	earned, err := svc.Earned(ctx, u.ID)
	require.NoError(t, err)
	codes := []string{}
	for _, b := range earned {
		codes = append(codes, b.Code)
	}
	assert.Equal(t, []string{"SURVIVOR", "FIRST_STEPS", "COIN_COLLECTOR"}, codes)
}

func TestCatalog_SortedByName(t *testing.T) {
	svc, _ := newBadgeFixture(t)

	catalog, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	names := []string{}
	for _, b := range catalog {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"Coin Collector", "First Steps", "Perfect 10", "Speed Demon", "Survivor"}, names)
}

func TestSeed_InsertsMissingOnlyAndDefaultsName(t *testing.T) {
	svc, _ := newBadgeFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, DefaultBadges))
	require.NoError(t, svc.Seed(ctx, []models.Badge{{Code: "NIGHT_OWL"}}))

	catalog, err := svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, len(DefaultBadges)+1)

	var found bool
	for _, b := range catalog {
		if b.Code == "NIGHT_OWL" {
			found = true
			assert.Equal(t, "Night Owl", b.Name)
		}
	}
	assert.True(t, found)

	err = svc.Seed(ctx, []models.Badge{{Code: "  "}})
	assert.True(t, IsKind(err, KindInvalidArgument))
}

func TestCatalog_ServedFromCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &mocks.MockBadgeRepository{}
	ctx := context.Background()
	catalog := []models.Badge{{ID: 1, Code: "FIRST_STEPS", Name: "First Steps"}}
	repo.On("ListCatalog", ctx).Return(catalog, nil).Once()

	svc := NewBadgeService(repo, cache.NewRedisCatalogCache(client, 0), nil, nil)

	first, err := svc.Catalog(ctx)
	require.NoError(t, err)
	second, err := svc.Catalog(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "ListCatalog", 1)
}

func TestSeed_InvalidatesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := testutil.NewStore()
	svc := NewBadgeService(store.Badges(), cache.NewRedisCatalogCache(client, 0), nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, DefaultBadges[:1]))
	catalog, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)

	require.NoError(t, svc.Seed(ctx, DefaultBadges))
	catalog, err = svc.Catalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, len(DefaultBadges))
}

func TestAward_PublishesOnlyNewAwards(t *testing.T) {
	store := testutil.NewStore()
	pub := &mocks.MockPublisher{}
	pub.On("Publish", mock.Anything, rabbitmq.BadgeAwarded, mock.Anything).Return(nil)
	svc := NewBadgeService(store.Badges(), nil, pub, nil)
	ctx := context.Background()
	require.NoError(t, svc.Seed(ctx, DefaultBadges))
	u := store.AddUser("Alice", "")

	_, err := svc.Award(ctx, u.ID, "SPEED_DEMON")
	require.NoError(t, err)
	_, err = svc.Award(ctx, u.ID, "SPEED_DEMON")
	require.NoError(t, err)

	pub.AssertNumberOfCalls(t, "Publish", 1)
	pub.AssertCalled(t, "Publish", mock.Anything, rabbitmq.BadgeAwarded, mock.MatchedBy(func(e rabbitmq.BadgeAwardedEvent) bool {
		return e.UserID == u.ID && e.Code == "SPEED_DEMON"
	}))
}

func TestAward_StorageError(t *testing.T) {
	repo := &mocks.MockBadgeRepository{}
	ctx := context.Background()
	repo.On("GetByCode", ctx, "FIRST_STEPS").Return(&models.Badge{ID: 3, Code: "FIRST_STEPS"}, nil)
	repo.On("Award", ctx, int64(1), int64(3)).Return(nil, false, errors.New("deadlock detected"))

	svc := NewBadgeService(repo, nil, nil, nil)
	_, err := svc.Award(ctx, 1, "FIRST_STEPS")
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestTitleCode(t *testing.T) {
	assert.Equal(t, "Coin Collector", titleCode("COIN_COLLECTOR"))
	assert.Equal(t, "Perfect 10", titleCode("perfect_10"))
}
