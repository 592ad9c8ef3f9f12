package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"match-service/internal/idgen"
	"match-service/internal/mocks"
	"match-service/internal/models"
	"match-service/internal/repositories"
	"match-service/internal/repositories/memory"
)

type harness struct {
	store        *memory.Store
	publisher    *mocks.PublisherMock
	notifier     *mocks.NotifierMock
	feed         *FeedService
	ledger       *LikeLedger
	registry     *MatchRegistry
	swipe        *SwipeService
	conversation *ConversationService
	groups       *GroupService
}

func newHarness(t *testing.T, groupIDs ...string) *harness {
	t.Helper()
	seq, err := idgen.NewSequencer(1)
	require.NoError(t, err)
	store := memory.New(seq)

	publisher := &mocks.PublisherMock{}
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	notifier := &mocks.NotifierMock{}
	notifier.On("NotifyMessage", mock.Anything, mock.Anything).Return()

	h := &harness{store: store, publisher: publisher, notifier: notifier}
	h.feed = NewFeedService(store, store)
	h.ledger = NewLikeLedger(store, publisher)
	h.registry = NewMatchRegistry(store, store, publisher)
	h.swipe = NewSwipeService(h.feed, h.ledger, h.registry)
	h.conversation = NewConversationService(h.registry, store, notifier, publisher)
	h.groups = NewGroupService(store)

	for _, id := range groupIDs {
		_, err := store.CreateGroupForUser(context.Background(), models.Group{ID: id, Name: "group " + id, AdminUserID: "admin-" + id})
		require.NoError(t, err)
	}
	return h
}

func (h *harness) published(routingKey string) int {
	return h.publisher.Published(routingKey)
}

func (h *harness) match(t *testing.T, a, b string) *models.Match {
	t.Helper()
	ctx := context.Background()
	_, err := h.swipe.Like(ctx, a, b)
	require.NoError(t, err)
	res, err := h.swipe.Like(ctx, b, a)
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	return res.Match
}

func ids(groups []models.Group) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.ID)
	}
	return out
}

func TestLikeThenReciprocateCreatesMatch(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()

	res, err := h.swipe.Like(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.Nil(t, res.Match)
	assert.Equal(t, "g2", res.Cursor)
	assert.Equal(t, "g1", res.Like.FromGroupID)

	candidates, err := h.feed.ListCandidates(ctx, "g1")
	require.NoError(t, err)
	assert.NotContains(t, ids(candidates), "g2")

	matches, err := h.registry.ListMatches(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, matches)

	res, err = h.swipe.Like(ctx, "g2", "g1")
	require.NoError(t, err)
	require.NotNil(t, res.Match)
	assert.Equal(t, []string{"g1", "g2"}, res.Match.GroupIDs())

	assert.Equal(t, 2, h.published(RoutingLikeRecorded))
	assert.Equal(t, 1, h.published(RoutingMatchCreated))
}

func TestDuplicateLikeDoesNotMatch(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()

	first, created, err := h.ledger.RecordLike(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := h.ledger.RecordLike(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	match, err := h.registry.CheckAndCreateMatch(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.Nil(t, match)
	assert.Equal(t, 1, h.published(RoutingLikeRecorded))
}

func TestRepeatedMutualLikesCreateOneMatch(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()

	var matchIDs []string
	for _, pair := range [][2]string{{"g2", "g1"}, {"g1", "g2"}, {"g2", "g1"}, {"g1", "g2"}} {
		res, err := h.swipe.Like(ctx, pair[0], pair[1])
		require.NoError(t, err)
		if res.Match != nil {
			matchIDs = append(matchIDs, res.Match.ID)
		}
	}

	require.Len(t, matchIDs, 3)
	assert.Equal(t, matchIDs[0], matchIDs[1])
	assert.Equal(t, matchIDs[0], matchIDs[2])
	assert.Equal(t, 1, h.published(RoutingMatchCreated))
}

func TestConcurrentMutualLikesCreateOneMatch(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan *models.Match, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "g1", "g2"
			if i%2 == 1 {
				from, to = to, from
			}
			res, err := h.swipe.Like(ctx, from, to)
			assert.NoError(t, err)
			results <- res.Match
		}(i)
	}
	wg.Wait()
	close(results)

	seen := map[string]struct{}{}
	for m := range results {
		if m != nil {
			seen[m.ID] = struct{}{}
		}
	}
	assert.Len(t, seen, 1)
	assert.Equal(t, 1, h.published(RoutingMatchCreated))
}

func TestListCandidatesExcludesSelfAndLiked(t *testing.T) {
	h := newHarness(t, "g4", "g2", "g1", "g3")
	ctx := context.Background()

	candidates, err := h.feed.ListCandidates(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g2", "g3", "g4"}, ids(candidates))

	_, _, err = h.ledger.RecordLike(ctx, "g1", "g3")
	require.NoError(t, err)

	candidates, err = h.feed.ListCandidates(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"g2", "g4"}, ids(candidates))
}

func TestListCandidatesUnknownGroup(t *testing.T) {
	h := newHarness(t, "g1")

	_, err := h.feed.ListCandidates(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFeedCursorWalk(t *testing.T) {
	h := newHarness(t, "g1", "g2", "g3", "g4")
	ctx := context.Background()

	page, err := h.feed.Page(ctx, "g1", "")
	require.NoError(t, err)
	require.NotNil(t, page.Candidate)
	assert.Equal(t, "g2", page.Candidate.ID)
	assert.Equal(t, 1, page.Position)
	assert.Equal(t, 3, page.Total)

	cursor, err := h.swipe.Pass(ctx, "g1", "g2")
	require.NoError(t, err)

	page, err = h.feed.Page(ctx, "g1", cursor)
	require.NoError(t, err)
	require.NotNil(t, page.Candidate)
	assert.Equal(t, "g3", page.Candidate.ID)

	res, err := h.swipe.Like(ctx, "g1", "g3")
	require.NoError(t, err)

	page, err = h.feed.Page(ctx, "g1", res.Cursor)
	require.NoError(t, err)
	require.NotNil(t, page.Candidate)
	assert.Equal(t, "g4", page.Candidate.ID)
	assert.Equal(t, 2, page.Position)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Remaining)

	page, err = h.feed.Page(ctx, "g1", "g4")
	require.NoError(t, err)
	assert.True(t, page.Done)
	assert.Nil(t, page.Candidate)
}

func TestPassWritesNothing(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()

	cursor, err := h.swipe.Pass(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.Equal(t, "g2", cursor)

	liked, err := h.store.HasLike(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.False(t, liked)
	h.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestLikeValidation(t *testing.T) {
	h := newHarness(t, "g1")
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
		kind     error
	}{
		{name: "self", from: "g1", to: "g1", kind: ErrValidation},
		{name: "empty target", from: "g1", to: "", kind: ErrValidation},
		{name: "unknown target", from: "g1", to: "ghost", kind: ErrNotFound},
		{name: "unknown source", from: "ghost", to: "g1", kind: ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.swipe.Like(ctx, tc.from, tc.to)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestConversationOrder(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()
	match := h.match(t, "g1", "g2")

	for _, post := range []struct{ author, text string }{
		{"g1", "hello"},
		{"g2", "hi"},
		{"g1", "how are you"},
	} {
		_, err := h.conversation.PostMessage(ctx, match.ID, post.author, post.text)
		require.NoError(t, err)
	}

	msgs, err := h.conversation.ListMessages(ctx, match.ID, "g2")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"hello", "hi", "how are you"}, []string{msgs[0].Text, msgs[1].Text, msgs[2].Text})
	assert.Equal(t, []string{"g1", "g2", "g1"}, []string{msgs[0].AuthorGroupID, msgs[1].AuthorGroupID, msgs[2].AuthorGroupID})
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
	}

	h.notifier.AssertNumberOfCalls(t, "NotifyMessage", 3)
	assert.Equal(t, 3, h.published(RoutingMessagePosted))
}

func TestPostedMessageIsLastOnReread(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()
	match := h.match(t, "g1", "g2")

	_, err := h.conversation.PostMessage(ctx, match.ID, "g1", "first")
	require.NoError(t, err)
	posted, err := h.conversation.PostMessage(ctx, match.ID, "g2", "  second  ")
	require.NoError(t, err)
	assert.Equal(t, "second", posted.Text)

	msgs, err := h.conversation.ListMessages(ctx, match.ID, "g1")
	require.NoError(t, err)
	assert.Equal(t, posted.ID, msgs[len(msgs)-1].ID)
}

func TestNonPartyCannotPostOrRead(t *testing.T) {
	h := newHarness(t, "g1", "g2", "g3")
	ctx := context.Background()
	match := h.match(t, "g1", "g2")

	_, err := h.conversation.PostMessage(ctx, match.ID, "g3", "let me in")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.conversation.ListMessages(ctx, match.ID, "g3")
	assert.ErrorIs(t, err, ErrForbidden)

	h.notifier.AssertNotCalled(t, "NotifyMessage", mock.Anything, mock.Anything)
}

func TestPostMessageChecksMembershipBeforeText(t *testing.T) {
	h := newHarness(t, "g1", "g2", "g3")
	ctx := context.Background()
	match := h.match(t, "g1", "g2")

	_, err := h.conversation.PostMessage(ctx, match.ID, "g3", "   ")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrValidation)

	_, err = h.conversation.PostMessage(ctx, "no-such-match", "g1", "")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestPostMessageValidation(t *testing.T) {
	h := newHarness(t, "g1", "g2")
	ctx := context.Background()
	match := h.match(t, "g1", "g2")

	_, err := h.conversation.PostMessage(ctx, match.ID, "g1", "   \n\t ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.conversation.PostMessage(ctx, match.ID, "g1", strings.Repeat("é", MaxMessageRunes+1))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.conversation.PostMessage(ctx, match.ID, "g1", strings.Repeat("é", MaxMessageRunes))
	assert.NoError(t, err)

	_, err = h.conversation.PostMessage(ctx, "missing", "g1", "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListMatchesIncludesOtherGroup(t *testing.T) {
	h := newHarness(t, "g1", "g2", "g3")
	ctx := context.Background()
	h.match(t, "g1", "g2")
	h.match(t, "g3", "g1")

	summaries, err := h.registry.ListMatches(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	others := []string{summaries[0].OtherGroup.ID, summaries[1].OtherGroup.ID}
	assert.ElementsMatch(t, []string{"g2", "g3"}, others)

	summaries, err = h.registry.ListMatches(ctx, "g2")
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "g1", summaries[0].OtherGroup.ID)
}

func TestCreateGroup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	group, err := h.groups.CreateGroup(ctx, "u1", "  Night Owls ", "we like jazz", "")
	require.NoError(t, err)
	assert.Equal(t, "Night Owls", group.Name)
	assert.Equal(t, models.DefaultGroupPhotoURL, group.PhotoURL)
	assert.Equal(t, "u1", group.AdminUserID)

	user, err := h.store.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.True(t, user.HasGroup())
	assert.Equal(t, group.ID, *user.GroupID)

	_, err = h.groups.CreateGroup(ctx, "u1", "Second", "", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = h.groups.CreateGroup(ctx, "u2", " ", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStorageFailuresAreClassified(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	likes := &mocks.LikeRepositoryMock{}
	likes.On("CreateLike", mock.Anything, "g1", "g2").Return(nil, false, boom)
	_, _, err := NewLikeLedger(likes, nil).RecordLike(ctx, "g1", "g2")
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "storage unavailable", PublicMessage(err))

	matches := &mocks.MatchRepositoryMock{}
	matches.On("CreateMatchIfMutual", mock.Anything, "g1", "g2").Return(nil, false, boom)
	_, err = NewMatchRegistry(matches, &mocks.GroupRepositoryMock{}, nil).CheckAndCreateMatch(ctx, "g1", "g2")
	assert.ErrorIs(t, err, ErrStorage)

	groups := &mocks.GroupRepositoryMock{}
	groups.On("GetGroup", mock.Anything, "g1").Return(nil, repositories.ErrGroupNotFound)
	_, err = NewFeedService(groups, &mocks.LikeRepositoryMock{}).ListCandidates(ctx, "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	groups = &mocks.GroupRepositoryMock{}
	groups.On("GetGroup", mock.Anything, "g1").Return(models.Group{ID: "g1"}, nil)
	groups.On("ListGroups", mock.Anything).Return(nil, models.ErrInvalidRecord)
	_, err = NewFeedService(groups, &mocks.LikeRepositoryMock{}).ListCandidates(ctx, "g1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPublishFailureDoesNotFailLike(t *testing.T) {
	seq, err := idgen.NewSequencer(2)
	require.NoError(t, err)
	store := memory.New(seq)
	ctx := context.Background()
	for _, id := range []string{"g1", "g2"} {
		_, err := store.CreateGroupForUser(ctx, models.Group{ID: id, Name: id, AdminUserID: "admin-" + id})
		require.NoError(t, err)
	}

	publisher := &mocks.PublisherMock{}
	publisher.On("Publish", mock.Anything, RoutingLikeRecorded, mock.Anything).Return(errors.New("broker down"))

	_, created, err := NewLikeLedger(store, publisher).RecordLike(ctx, "g1", "g2")
	require.NoError(t, err)
	assert.True(t, created)
	publisher.AssertExpectations(t)
}
