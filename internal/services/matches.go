package services

import (
	"context"
	"errors"
	"log"
	"time"

	"match-service/internal/models"
	"match-service/internal/observability"
	"match-service/internal/repositories"
)

// MatchRegistry creates matches for mutual likes and answers membership questions.
type MatchRegistry struct {
	matches   repositories.MatchRepository
	groups    repositories.GroupRepository
	publisher EventPublisher
}

func NewMatchRegistry(matches repositories.MatchRepository, groups repositories.GroupRepository, publisher EventPublisher) *MatchRegistry {
	return &MatchRegistry{matches: matches, groups: groups, publisher: publisher}
}

// CheckAndCreateMatch returns the match for {a,b} when both likes exist, creating
// it if needed, and nil otherwise.
func (r *MatchRegistry) CheckAndCreateMatch(ctx context.Context, groupA, groupB string) (*models.Match, error) {
	const op = "matches.CheckAndCreateMatch"
	if err := validatePair(op, groupA, groupB); err != nil {
		return nil, err
	}

	match, created, err := r.matches.CreateMatchIfMutual(ctx, groupA, groupB)
	if err != nil {
		return nil, storeError(op, err)
	}
	if match == nil {
		return nil, nil
	}
	if created {
		observability.IncMatchCreated()
		log.Printf("match created match_id=%s pair=%s", match.ID, match.PairKey)
		publish(ctx, r.publisher, RoutingMatchCreated, "match_created", MatchCreatedEvent{
			MatchID:   match.ID,
			GroupIDs:  match.GroupIDs(),
			CreatedAt: match.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return match, nil
}

// ListMatches returns the group's matches together with the other group's profile.
func (r *MatchRegistry) ListMatches(ctx context.Context, groupID string) ([]models.MatchSummary, error) {
	const op = "matches.ListMatches"
	if groupID == "" {
		return nil, invalid(op, "group id is required")
	}
	if _, err := r.groups.GetGroup(ctx, groupID); err != nil {
		return nil, storeError(op, err)
	}

	matches, err := r.matches.ListMatchesForGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(op, err)
	}

	summaries := make([]models.MatchSummary, 0, len(matches))
	for _, m := range matches {
		otherID, ok := m.OtherGroup(groupID)
		if !ok {
			continue
		}
		other, err := r.groups.GetGroup(ctx, otherID)
		if errors.Is(err, repositories.ErrGroupNotFound) {
			log.Printf("match skipped, other group missing match_id=%s group_id=%s", m.ID, otherID)
			continue
		}
		if err != nil {
			return nil, storeError(op, err)
		}
		summaries = append(summaries, models.MatchSummary{
			MatchID:    m.ID,
			OtherGroup: other,
			CreatedAt:  m.CreatedAt,
		})
	}
	return summaries, nil
}

// Authorize loads the match and checks that groupID is one of its parties.
func (r *MatchRegistry) Authorize(ctx context.Context, matchID, groupID string) (models.Match, error) {
	const op = "matches.Authorize"
	if matchID == "" {
		return models.Match{}, invalid(op, "match id is required")
	}
	match, err := r.matches.GetMatch(ctx, matchID)
	if err != nil {
		return models.Match{}, storeError(op, err)
	}
	if !match.HasGroup(groupID) {
		return models.Match{}, forbidden(op, "group is not part of this match")
	}
	return match, nil
}
