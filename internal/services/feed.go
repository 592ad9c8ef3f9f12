package services

import (
	"context"
	"sort"
	"strings"

	"match-service/internal/models"
	"match-service/internal/repositories"
)

// FeedPage is one step of the candidate feed.
type FeedPage struct {
	Candidate *models.Group `json:"candidate"`
	// Cursor is the id of the last group acted on; pass it back to continue.
	Cursor    string `json:"cursor"`
	Position  int    `json:"position"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	Done      bool   `json:"done"`
}

// FeedService builds the candidate feed for a group.
type FeedService struct {
	groups repositories.GroupRepository
	likes  repositories.LikeRepository
}

func NewFeedService(groups repositories.GroupRepository, likes repositories.LikeRepository) *FeedService {
	return &FeedService{groups: groups, likes: likes}
}

// ListCandidates returns every other group the requester has not liked, ordered by id.
func (s *FeedService) ListCandidates(ctx context.Context, groupID string) ([]models.Group, error) {
	const op = "feed.ListCandidates"
	if strings.TrimSpace(groupID) == "" {
		return nil, invalid(op, "group id is required")
	}
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return nil, storeError(op, err)
	}

	groups, err := s.groups.ListGroups(ctx)
	if err != nil {
		return nil, storeError(op, err)
	}
	liked, err := s.likes.ListLikedGroupIDs(ctx, groupID)
	if err != nil {
		return nil, storeError(op, err)
	}

	excluded := make(map[string]struct{}, len(liked)+1)
	excluded[groupID] = struct{}{}
	for _, id := range liked {
		excluded[id] = struct{}{}
	}

	candidates := make([]models.Group, 0, len(groups))
	for _, g := range groups {
		if _, skip := excluded[g.ID]; skip {
			continue
		}
		candidates = append(candidates, g)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates, nil
}

// Page returns the first candidate after the cursor.
func (s *FeedService) Page(ctx context.Context, groupID, cursor string) (FeedPage, error) {
	candidates, err := s.ListCandidates(ctx, groupID)
	if err != nil {
		return FeedPage{}, err
	}

	idx := sort.Search(len(candidates), func(i int) bool { return candidates[i].ID > cursor })
	page := FeedPage{Cursor: cursor, Total: len(candidates)}
	if idx == len(candidates) {
		page.Done = true
		page.Position = len(candidates)
		return page, nil
	}

	candidate := candidates[idx]
	page.Candidate = &candidate
	page.Position = idx + 1
	page.Remaining = len(candidates) - idx
	return page, nil
}

// Pass skips a candidate without recording anything and returns the next cursor.
func (s *FeedService) Pass(ctx context.Context, groupID, candidateID string) (string, error) {
	const op = "feed.Pass"
	if err := validatePair(op, groupID, candidateID); err != nil {
		return "", err
	}
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		return "", storeError(op, err)
	}
	if _, err := s.groups.GetGroup(ctx, candidateID); err != nil {
		return "", storeError(op, err)
	}
	return candidateID, nil
}

func validatePair(op, groupID, otherID string) error {
	switch {
	case strings.TrimSpace(groupID) == "":
		return invalid(op, "group id is required")
	case strings.TrimSpace(otherID) == "":
		return invalid(op, "candidate id is required")
	case groupID == otherID:
		return invalid(op, "a group cannot act on itself")
	}
	return nil
}
