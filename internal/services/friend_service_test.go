package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"profile-service/internal/mocks"
	"profile-service/internal/models"
	"profile-service/internal/rabbitmq"
	"profile-service/internal/repositories"
	"profile-service/internal/testutil"
)

func newFriendFixture(t *testing.T) (*FriendService, *testutil.Store) {
	t.Helper()
	store := testutil.NewStore()
	return NewFriendService(store.Users(), store.Friends(), nil, nil), store
}

func friendIDs(summaries []models.UserSummary) []int64 {
	ids := make([]int64, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestCreateRequest_PairSymmetryBlocksDuplicates(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	req, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendPending, req.Status)
	assert.Nil(t, req.RespondedAt)

	_, err = svc.CreateRequest(ctx, b.ID, a.ID)
	assert.True(t, IsKind(err, KindConflict), "reverse direction: %v", err)

	_, err = svc.CreateRequest(ctx, a.ID, b.ID)
	assert.True(t, IsKind(err, KindConflict), "same direction: %v", err)

	assert.Equal(t, 1, store.RequestCount())
}

func TestCreateRequest_ExistingFriendshipConflicts(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	req, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, req.ID, b.ID)
	require.NoError(t, err)

	_, err = svc.CreateRequest(ctx, b.ID, a.ID)
	assert.True(t, IsKind(err, KindConflict))
}

func TestCreateRequest_SelfRejected(t *testing.T) {
	svc, store := newFriendFixture(t)
	for i := 0; i < 5; i++ {
		u := store.AddUser(fmt.Sprintf("User %d", i), "")
		_, err := svc.CreateRequest(context.Background(), u.ID, u.ID)
		assert.True(t, IsKind(err, KindInvalidArgument))
	}
	assert.Equal(t, 0, store.RequestCount())
}

func TestCreateRequest_UnknownTarget(t *testing.T) {
	svc, store := newFriendFixture(t)
	a := store.AddUser("Alice", "")

	_, err := svc.CreateRequest(context.Background(), a.ID, 9999)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCreateRequest_ConcurrentOppositeDirections(t *testing.T) {
	svc, store := newFriendFixture(t)
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := a.ID, b.ID
			if i%2 == 1 {
				from, to = to, from
			}
			_, errs[i] = svc.CreateRequest(context.Background(), from, to)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, IsKind(err, KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.RequestCount())
}

func TestAccept_DerivesFriendship(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("", "")

	req, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	accepted, err := svc.Accept(ctx, req.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	aFriends, err := svc.Friends(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, friendIDs(aFriends))
	assert.Equal(t, fmt.Sprintf("Player #%d", b.ID), aFriends[0].DisplayName)

	bFriends, err := svc.Friends(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, friendIDs(bFriends))
	assert.Equal(t, "Alice", bFriends[0].DisplayName)

	for _, id := range []int64{a.ID, b.ID} {
		pending, err := svc.Pending(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, pending.Inbound)
		assert.Empty(t, pending.Outbound)
	}
}

func TestAccept_TwiceIsInvalidState(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	req, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, req.ID, b.ID)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, req.ID, b.ID)
	assert.True(t, IsKind(err, KindInvalidState))

	err = svc.Decline(ctx, req.ID, b.ID)
	assert.True(t, IsKind(err, KindInvalidState))
}

func TestAcceptDecline_RequesterSeesNotFound(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")
	c := store.AddUser("Carol", "")

	req, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, missingErr := svc.Accept(ctx, 424242, b.ID)
	require.True(t, IsKind(missingErr, KindNotFound))

	for _, actor := range []int64{a.ID, c.ID} {
		_, err := svc.Accept(ctx, req.ID, actor)
		assert.True(t, IsKind(err, KindNotFound))
		assert.Equal(t, missingErr.Error(), err.Error())

		err = svc.Decline(ctx, req.ID, actor)
		assert.True(t, IsKind(err, KindNotFound))
		assert.Equal(t, missingErr.Error(), err.Error())
	}

	pending, err := svc.Pending(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, pending.Inbound, 1)
}

func TestDecline_FreesThePair(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	req, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Decline(ctx, req.ID, b.ID))
	assert.Equal(t, 0, store.RequestCount())

	_, err = svc.CreateRequest(ctx, a.ID, b.ID)
	assert.NoError(t, err)
}

func TestRemove_SymmetricAndReversible(t *testing.T) {
	for _, remover := range []string{"requester", "receiver"} {
		t.Run(remover, func(t *testing.T) {
			svc, store := newFriendFixture(t)
			ctx := context.Background()
			a := store.AddUser("Alice", "")
			b := store.AddUser("Bob", "")

			req, err := svc.CreateRequest(ctx, a.ID, b.ID)
			require.NoError(t, err)
			_, err = svc.Accept(ctx, req.ID, b.ID)
			require.NoError(t, err)

			caller, other := a.ID, b.ID
			if remover == "receiver" {
				caller, other = b.ID, a.ID
			}
			require.NoError(t, svc.Remove(ctx, caller, other))

			aFriends, err := svc.Friends(ctx, a.ID)
			require.NoError(t, err)
			assert.Empty(t, aFriends)
			bFriends, err := svc.Friends(ctx, b.ID)
			require.NoError(t, err)
			assert.Empty(t, bFriends)

			_, err = svc.CreateRequest(ctx, a.ID, b.ID)
			assert.NoError(t, err)
		})
	}
}

func TestRemove_NoAcceptedLink(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	err := svc.Remove(ctx, a.ID, b.ID)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	err = svc.Remove(ctx, a.ID, b.ID)
	assert.True(t, IsKind(err, KindNotFound), "pending request is not a friendship")
	assert.Equal(t, 1, store.RequestCount())
}

func TestFriends_EmptySetSkipsUserLookup(t *testing.T) {
	svc, store := newFriendFixture(t)
	a := store.AddUser("Alice", "")

	friends, err := svc.Friends(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)
	assert.Equal(t, 0, store.UserQueries)
}

func TestPending_SplitsInboundAndOutbound(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")
	c := store.AddUser("Carol", "")

	out, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	in, err := svc.CreateRequest(ctx, c.ID, a.ID)
	require.NoError(t, err)

	pending, err := svc.Pending(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, pending.Inbound, 1)
	require.Len(t, pending.Outbound, 1)
	assert.Equal(t, in.ID, pending.Inbound[0].ID)
	assert.Equal(t, out.ID, pending.Outbound[0].ID)
}

func TestBrowse_ExcludesCaller(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	users := make([]*models.User, 0, 12)
	for i := 0; i < 12; i++ {
		users = append(users, store.AddUser(fmt.Sprintf("Player %d", i), ""))
	}

	for _, caller := range users {
		for offset := 0; offset < 12; offset += 3 {
			page, err := svc.Browse(ctx, caller.ID, BrowseParams{Offset: offset, Limit: 3})
			require.NoError(t, err)
			assert.NotContains(t, friendIDs(page), caller.ID)
		}
	}

	// Excluding in the query keeps pages full.
	page, err := svc.Browse(ctx, users[11].ID, BrowseParams{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{users[10].ID, users[9].ID, users[8].ID}, friendIDs(page))
}

func TestBrowse_LimitClampAndQuery(t *testing.T) {
	svc, store := newFriendFixture(t)
	ctx := context.Background()
	caller := store.AddUser("Caller", "")
	for i := 0; i < 60; i++ {
		store.AddUser(fmt.Sprintf("Player %d", i), "")
	}
	store.AddUser("Nobody", "Loves SPEEDRUNS")

	page, err := svc.Browse(ctx, caller.ID, BrowseParams{Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page, maxBrowseLimit)

	page, err = svc.Browse(ctx, caller.ID, BrowseParams{Limit: 0})
	require.NoError(t, err)
	assert.Len(t, page, minBrowseLimit)

	page, err = svc.Browse(ctx, caller.ID, BrowseParams{Query: "speedrun", Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Nobody", page[0].DisplayName)
}

func TestFriendService_PublishesEvents(t *testing.T) {
	store := testutil.NewStore()
	pub := &mocks.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc := NewFriendService(store.Users(), store.Friends(), pub, nil)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	req, err := svc.CreateRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, req.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(ctx, a.ID, b.ID))

	pub.AssertCalled(t, "Publish", mock.Anything, rabbitmq.FriendRequestCreated, mock.MatchedBy(func(e rabbitmq.FriendRequestEvent) bool {
		return e.RequestID == req.ID && e.RequesterID == a.ID && e.ReceiverID == b.ID
	}))
	pub.AssertCalled(t, "Publish", mock.Anything, rabbitmq.FriendshipCreated, mock.MatchedBy(func(e rabbitmq.FriendshipEvent) bool {
		return e.UserID == b.ID && e.FriendID == a.ID && e.OccurredAt.Equal(fixed)
	}))
	pub.AssertCalled(t, "Publish", mock.Anything, rabbitmq.FriendshipRemoved, mock.MatchedBy(func(e rabbitmq.FriendshipEvent) bool {
		return e.RequestID == req.ID && e.UserID == a.ID && e.FriendID == b.ID
	}))
}

func TestFriendService_PublishFailureDoesNotFailRequest(t *testing.T) {
	store := testutil.NewStore()
	pub := &mocks.MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))
	svc := NewFriendService(store.Users(), store.Friends(), pub, nil)
	a := store.AddUser("Alice", "")
	b := store.AddUser("Bob", "")

	_, err := svc.CreateRequest(context.Background(), a.ID, b.ID)
	assert.NoError(t, err)
}

func TestAccept_LostRaceIsInvalidState(t *testing.T) {
	users := &mocks.MockUserRepository{}
	friends := &mocks.MockFriendRepository{}
	svc := NewFriendService(users, friends, nil, nil)
	ctx := context.Background()

	friends.On("GetRequest", ctx, int64(7)).Return(&models.FriendRequest{
		ID: 7, RequesterID: 1, ReceiverID: 2, Status: models.FriendPending,
	}, nil)
	friends.On("MarkAccepted", ctx, int64(7), mock.AnythingOfType("time.Time")).Return(nil, repositories.ErrStale)
	friends.On("DeletePending", ctx, int64(7)).Return(repositories.ErrStale)

	_, err := svc.Accept(ctx, 7, 2)
	assert.True(t, IsKind(err, KindInvalidState))
	assert.ErrorIs(t, err, repositories.ErrStale)

	err = svc.Decline(ctx, 7, 2)
	assert.True(t, IsKind(err, KindInvalidState))
	friends.AssertExpectations(t)
}

func TestCreateRequest_StorageErrorIsInternal(t *testing.T) {
	users := &mocks.MockUserRepository{}
	friends := &mocks.MockFriendRepository{}
	svc := NewFriendService(users, friends, nil, nil)
	ctx := context.Background()

	users.On("GetByID", ctx, int64(2)).Return(&models.User{ID: 2}, nil)
	friends.On("CreateRequest", ctx, int64(1), int64(2)).Return(nil, errors.New("connection reset"))

	_, err := svc.CreateRequest(ctx, 1, 2)
	require.Error(t, err)
	assert.Equal(t, KindInternal, KindOf(err))
}
