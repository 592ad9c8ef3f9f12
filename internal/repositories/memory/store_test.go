package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-service/internal/idgen"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	seq, err := idgen.NewSequencer(1)
	require.NoError(t, err)
	return New(seq)
}

func seedGroup(t *testing.T, s *Store, id, admin string) models.Group {
	t.Helper()
	g, err := s.CreateGroupForUser(context.Background(), models.Group{ID: id, Name: id, AdminUserID: admin})
	require.NoError(t, err)
	return g
}

func TestCreateGroupForUserAssignsGroup(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	seedGroup(t, s, "g1", "u1")

	user, err := s.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.True(t, user.HasGroup())
	assert.Equal(t, "g1", *user.GroupID)

	_, err = s.CreateGroupForUser(ctx, models.Group{ID: "g2", Name: "again", AdminUserID: "u1"})
	assert.ErrorIs(t, err, repositories.ErrUserHasGroup)
}

func TestListGroupsOrderedByID(t *testing.T) {
	s := newStore(t)
	seedGroup(t, s, "c", "u3")
	seedGroup(t, s, "a", "u1")
	seedGroup(t, s, "b", "u2")

	groups, err := s.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{groups[0].ID, groups[1].ID, groups[2].ID})
}

func TestCreateLikeIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedGroup(t, s, "g1", "u1")
	seedGroup(t, s, "g2", "u2")

	first, created, err := s.CreateLike(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := s.CreateLike(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, second)

	ids, err := s.ListLikedGroupIDs(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, ids)
}

func TestCreateLikeRejectsUnknownAndSelf(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedGroup(t, s, "g1", "u1")

	_, _, err := s.CreateLike(ctx, "g1", "missing")
	assert.ErrorIs(t, err, repositories.ErrGroupNotFound)

	_, _, err = s.CreateLike(ctx, "g1", "g1")
	assert.ErrorIs(t, err, repositories.ErrSelfLike)
}

func TestCreateMatchIfMutualRequiresBothLikes(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedGroup(t, s, "g1", "u1")
	seedGroup(t, s, "g2", "u2")

	_, _, err := s.CreateLike(ctx, "g1", "g2")
	require.NoError(t, err)

	match, created, err := s.CreateMatchIfMutual(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.Nil(t, match)
	assert.False(t, created)

	_, _, err = s.CreateLike(ctx, "g2", "g1")
	require.NoError(t, err)

	match, created, err = s.CreateMatchIfMutual(ctx, "g2", "g1")
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.True(t, created)
	assert.Equal(t, "g1:g2", match.PairKey)

	again, created, err := s.CreateMatchIfMutual(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, match.ID, again.ID)
}

func TestCreateMatchIfMutualConcurrent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	seedGroup(t, s, "g1", "u1")
	seedGroup(t, s, "g2", "u2")
	_, _, err := s.CreateLike(ctx, "g1", "g2")
	require.NoError(t, err)
	_, _, err = s.CreateLike(ctx, "g2", "g1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	createdCount := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "g1", "g2"
			if i%2 == 0 {
				a, b = b, a
			}
			_, created, err := s.CreateMatchIfMutual(ctx, a, b)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	matches, err := s.ListMatchesForGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestMessagesOrderedWithSequenceTieBreak(t *testing.T) {
	s := newStore(t)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return fixed })
	ctx := context.Background()
	seedGroup(t, s, "g1", "u1")
	seedGroup(t, s, "g2", "u2")
	_, _, _ = s.CreateLike(ctx, "g1", "g2")
	_, _, _ = s.CreateLike(ctx, "g2", "g1")
	match, _, err := s.CreateMatchIfMutual(ctx, "g1", "g2")
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := s.CreateMessage(ctx, match.ID, "g1", text)
		require.NoError(t, err)
	}

	msgs, err := s.ListMessages(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "three", msgs[2].Text)
	assert.Less(t, msgs[0].Seq, msgs[1].Seq)

	_, err = s.CreateMessage(ctx, "nope", "g1", "hi")
	assert.ErrorIs(t, err, repositories.ErrMatchNotFound)
}

func TestMessagesStayOrderedWhenClockStepsBack(t *testing.T) {
	s := newStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time { return now })
	ctx := context.Background()
	seedGroup(t, s, "g1", "u1")
	seedGroup(t, s, "g2", "u2")
	_, _, _ = s.CreateLike(ctx, "g1", "g2")
	_, _, _ = s.CreateLike(ctx, "g2", "g1")
	match, _, err := s.CreateMatchIfMutual(ctx, "g1", "g2")
	require.NoError(t, err)

	first, err := s.CreateMessage(ctx, match.ID, "g1", "before")
	require.NoError(t, err)

	now = now.Add(-time.Minute)
	second, err := s.CreateMessage(ctx, match.ID, "g2", "after")
	require.NoError(t, err)
	assert.False(t, second.CreatedAt.Before(first.CreatedAt))

	msgs, err := s.ListMessages(ctx, match.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "after", msgs[1].Text)
}
