package repositories

import (
	"context"
	"errors"

	"match-service/internal/models"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrMatchNotFound = errors.New("match not found")
	ErrUserHasGroup  = errors.New("user already administers a group")
	ErrSelfLike      = errors.New("group cannot like itself")
)

// GroupRepository stores group profiles.
type GroupRepository interface {
	// CreateGroupForUser inserts the group and records it on its admin in one step.
	CreateGroupForUser(ctx context.Context, group models.Group) (models.Group, error)
	GetGroup(ctx context.Context, groupID string) (models.Group, error)
	// ListGroups returns every group ordered by id.
	ListGroups(ctx context.Context) ([]models.Group, error)
}

// UserRepository maps authenticated users to the group they administer.
type UserRepository interface {
	EnsureUser(ctx context.Context, userID string) (models.User, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
}

// LikeRepository is the like ledger. CreateLike is idempotent per ordered pair and
// reports whether a new like was written.
type LikeRepository interface {
	CreateLike(ctx context.Context, fromGroupID, toGroupID string) (models.Like, bool, error)
	HasLike(ctx context.Context, fromGroupID, toGroupID string) (bool, error)
	ListLikedGroupIDs(ctx context.Context, fromGroupID string) ([]string, error)
}

// MatchRepository is the match registry. CreateMatchIfMutual returns nil when the
// two likes are not both present; created is false when the match already existed.
type MatchRepository interface {
	CreateMatchIfMutual(ctx context.Context, groupA, groupB string) (match *models.Match, created bool, err error)
	GetMatch(ctx context.Context, matchID string) (models.Match, error)
	ListMatchesForGroup(ctx context.Context, groupID string) ([]models.Match, error)
}

// MessageRepository is the per-match conversation log.
type MessageRepository interface {
	CreateMessage(ctx context.Context, matchID, authorGroupID, text string) (models.Message, error)
	// ListMessages returns messages ascending by created_at, ties by seq.
	ListMessages(ctx context.Context, matchID string) ([]models.Message, error)
}

// Store bundles one backend's repositories.
type Store struct {
	Groups   GroupRepository
	Users    UserRepository
	Likes    LikeRepository
	Matches  MatchRepository
	Messages MessageRepository

	Ping  func(ctx context.Context) error
	Close func() error
}
