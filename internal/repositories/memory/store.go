package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"match-service/internal/idgen"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

// Store keeps every collection in process. It satisfies all repository interfaces
// with the same uniqueness guarantees as the durable backends.
type Store struct {
	mu sync.RWMutex

	seq *idgen.Sequencer
	now func() time.Time

	groups   map[string]models.Group
	users    map[string]models.User
	likes    map[string]models.Like
	matches  map[string]models.Match
	byPair   map[string]string
	messages map[string][]models.Message
}

var (
	_ repositories.GroupRepository   = (*Store)(nil)
	_ repositories.UserRepository    = (*Store)(nil)
	_ repositories.LikeRepository    = (*Store)(nil)
	_ repositories.MatchRepository   = (*Store)(nil)
	_ repositories.MessageRepository = (*Store)(nil)
)

// New builds an empty store.
func New(seq *idgen.Sequencer) *Store {
	return &Store{
		seq:      seq,
		now:      func() time.Time { return time.Now().UTC() },
		groups:   make(map[string]models.Group),
		users:    make(map[string]models.User),
		likes:    make(map[string]models.Like),
		matches:  make(map[string]models.Match),
		byPair:   make(map[string]string),
		messages: make(map[string][]models.Message),
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Bundle exposes the store as a repositories.Store.
func (s *Store) Bundle() repositories.Store {
	return repositories.Store{
		Groups:   s,
		Users:    s,
		Likes:    s,
		Matches:  s,
		Messages: s,
		Ping:     func(context.Context) error { return nil },
		Close:    func() error { return nil },
	}
}

func (s *Store) CreateGroupForUser(ctx context.Context, group models.Group) (models.Group, error) {
	if err := ctx.Err(); err != nil {
		return models.Group{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[group.AdminUserID]
	if !ok {
		user = models.User{ID: group.AdminUserID, CreatedAt: s.now()}
	}
	if user.HasGroup() {
		return models.Group{}, repositories.ErrUserHasGroup
	}

	if group.ID == "" {
		group.ID = idgen.NewID()
	}
	group.CreatedAt = s.now()
	s.groups[group.ID] = group

	id := group.ID
	user.GroupID = &id
	s.users[user.ID] = user
	return group, nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	if err := ctx.Err(); err != nil {
		return models.Group{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[groupID]
	if !ok {
		return models.Group{}, repositories.ErrGroupNotFound
	}
	return group, nil
}

func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	groups := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	s.mu.RUnlock()

	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (s *Store) EnsureUser(ctx context.Context, userID string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		user = models.User{ID: userID, CreatedAt: s.now()}
		s.users[userID] = user
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (models.User, error) {
	if err := ctx.Err(); err != nil {
		return models.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return models.User{}, repositories.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) CreateLike(ctx context.Context, fromGroupID, toGroupID string) (models.Like, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Like{}, false, err
	}
	if fromGroupID == toGroupID {
		return models.Like{}, false, repositories.ErrSelfLike
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[fromGroupID]; !ok {
		return models.Like{}, false, repositories.ErrGroupNotFound
	}
	if _, ok := s.groups[toGroupID]; !ok {
		return models.Like{}, false, repositories.ErrGroupNotFound
	}

	key := models.LikeKey(fromGroupID, toGroupID)
	if existing, ok := s.likes[key]; ok {
		return existing, false, nil
	}
	like := models.Like{
		ID:          idgen.NewID(),
		FromGroupID: fromGroupID,
		ToGroupID:   toGroupID,
		CreatedAt:   s.now(),
	}
	s.likes[key] = like
	return like, true, nil
}

func (s *Store) HasLike(ctx context.Context, fromGroupID, toGroupID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.likes[models.LikeKey(fromGroupID, toGroupID)]
	return ok, nil
}

func (s *Store) ListLikedGroupIDs(ctx context.Context, fromGroupID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []string
	for _, like := range s.likes {
		if like.FromGroupID == fromGroupID {
			ids = append(ids, like.ToGroupID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// CreateMatchIfMutual holds the write lock across the mutuality check and the insert.
func (s *Store) CreateMatchIfMutual(ctx context.Context, groupA, groupB string) (*models.Match, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if groupA == groupB {
		return nil, false, repositories.ErrSelfLike
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, forward := s.likes[models.LikeKey(groupA, groupB)]
	_, reverse := s.likes[models.LikeKey(groupB, groupA)]
	if !forward || !reverse {
		return nil, false, nil
	}

	pairKey := models.PairKey(groupA, groupB)
	if id, ok := s.byPair[pairKey]; ok {
		existing := s.matches[id]
		return &existing, false, nil
	}

	match := models.NewMatch(idgen.NewID(), groupA, groupB, s.now())
	s.matches[match.ID] = match
	s.byPair[pairKey] = match.ID
	return &match, true, nil
}

func (s *Store) GetMatch(ctx context.Context, matchID string) (models.Match, error) {
	if err := ctx.Err(); err != nil {
		return models.Match{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	match, ok := s.matches[matchID]
	if !ok {
		return models.Match{}, repositories.ErrMatchNotFound
	}
	return match, nil
}

func (s *Store) ListMatchesForGroup(ctx context.Context, groupID string) ([]models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var matches []models.Match
	for _, m := range s.matches {
		if m.HasGroup(groupID) {
			matches = append(matches, m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}

func (s *Store) CreateMessage(ctx context.Context, matchID, authorGroupID, text string) (models.Message, error) {
	if err := ctx.Err(); err != nil {
		return models.Message{}, err
	}
	seq, err := s.seq.Next()
	if err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[matchID]; !ok {
		return models.Message{}, repositories.ErrMatchNotFound
	}
	// A wall clock stepping backwards must not place a new message before older ones.
	createdAt := s.now()
	if history := s.messages[matchID]; len(history) > 0 {
		if last := history[len(history)-1].CreatedAt; createdAt.Before(last) {
			createdAt = last
		}
	}
	msg := models.Message{
		ID:            idgen.NewID(),
		Seq:           seq,
		MatchID:       matchID,
		AuthorGroupID: authorGroupID,
		Text:          text,
		CreatedAt:     createdAt,
	}
	s.messages[matchID] = append(s.messages[matchID], msg)
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	msgs := make([]models.Message, len(s.messages[matchID]))
	copy(msgs, s.messages[matchID])
	s.mu.RUnlock()

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Before(msgs[j]) })
	return msgs, nil
}
