package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"match-service/internal/models"
	"match-service/internal/repositories"
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroupForUser(ctx context.Context, group models.Group) (models.Group, error) {
	args := m.Called(ctx, group)
	var created models.Group
	if val := args.Get(0); val != nil {
		created = val.(models.Group)
	}
	return created, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroups(ctx context.Context) ([]models.Group, error) {
	args := m.Called(ctx)
	var list []models.Group
	if val := args.Get(0); val != nil {
		list = val.([]models.Group)
	}
	return list, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) EnsureUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type LikeRepositoryMock struct {
	mock.Mock
}

func (m *LikeRepositoryMock) CreateLike(ctx context.Context, fromGroupID, toGroupID string) (models.Like, bool, error) {
	args := m.Called(ctx, fromGroupID, toGroupID)
	var like models.Like
	if val := args.Get(0); val != nil {
		like = val.(models.Like)
	}
	return like, args.Bool(1), args.Error(2)
}

func (m *LikeRepositoryMock) HasLike(ctx context.Context, fromGroupID, toGroupID string) (bool, error) {
	args := m.Called(ctx, fromGroupID, toGroupID)
	return args.Bool(0), args.Error(1)
}

func (m *LikeRepositoryMock) ListLikedGroupIDs(ctx context.Context, fromGroupID string) ([]string, error) {
	args := m.Called(ctx, fromGroupID)
	var ids []string
	if val := args.Get(0); val != nil {
		ids = val.([]string)
	}
	return ids, args.Error(1)
}

type MatchRepositoryMock struct {
	mock.Mock
}

func (m *MatchRepositoryMock) CreateMatchIfMutual(ctx context.Context, groupA, groupB string) (*models.Match, bool, error) {
	args := m.Called(ctx, groupA, groupB)
	var match *models.Match
	if val := args.Get(0); val != nil {
		match = val.(*models.Match)
	}
	return match, args.Bool(1), args.Error(2)
}

func (m *MatchRepositoryMock) GetMatch(ctx context.Context, matchID string) (models.Match, error) {
	args := m.Called(ctx, matchID)
	var match models.Match
	if val := args.Get(0); val != nil {
		match = val.(models.Match)
	}
	return match, args.Error(1)
}

func (m *MatchRepositoryMock) ListMatchesForGroup(ctx context.Context, groupID string) ([]models.Match, error) {
	args := m.Called(ctx, groupID)
	var list []models.Match
	if val := args.Get(0); val != nil {
		list = val.([]models.Match)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, matchID, authorGroupID, text string) (models.Message, error) {
	args := m.Called(ctx, matchID, authorGroupID, text)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	args := m.Called(ctx, matchID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

// PublisherMock stands in for the AMQP publisher shared by services, the hub and audit.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Published counts Publish calls made with routingKey.
func (m *PublisherMock) Published(routingKey string) int {
	n := 0
	for _, call := range m.Calls {
		if call.Method == "Publish" && call.Arguments.String(1) == routingKey {
			n++
		}
	}
	return n
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyMessage(ctx context.Context, msg models.Message) {
	m.Called(ctx, msg)
}

var (
	_ repositories.GroupRepository   = (*GroupRepositoryMock)(nil)
	_ repositories.UserRepository    = (*UserRepositoryMock)(nil)
	_ repositories.LikeRepository    = (*LikeRepositoryMock)(nil)
	_ repositories.MatchRepository   = (*MatchRepositoryMock)(nil)
	_ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
)
