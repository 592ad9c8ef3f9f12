package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"match-service/internal/models"
)

// SwipeResult is the outcome of liking a candidate.
type SwipeResult struct {
	Like   models.Like   `json:"like"`
	Match  *models.Match `json:"match,omitempty"`
	Cursor string        `json:"cursor"`
}

// SwipeService drives the feed: like records and match-checks, pass only advances.
type SwipeService struct {
	feed     *FeedService
	ledger   *LikeLedger
	registry *MatchRegistry
}

func NewSwipeService(feed *FeedService, ledger *LikeLedger, registry *MatchRegistry) *SwipeService {
	return &SwipeService{feed: feed, ledger: ledger, registry: registry}
}

// Like records the like and checks for a match. The cursor only advances once both
// steps have succeeded.
func (s *SwipeService) Like(ctx context.Context, groupID, candidateID string) (SwipeResult, error) {
	ctx, span := tracer.Start(ctx, "swipe.Like")
	defer span.End()
	span.SetAttributes(attribute.String("group.id", groupID), attribute.String("candidate.id", candidateID))

	like, _, err := s.ledger.RecordLike(ctx, groupID, candidateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record like")
		return SwipeResult{}, err
	}

	match, err := s.registry.CheckAndCreateMatch(ctx, groupID, candidateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "check match")
		return SwipeResult{}, err
	}
	if match != nil {
		span.SetAttributes(attribute.String("match.id", match.ID))
	}

	return SwipeResult{Like: like, Match: match, Cursor: candidateID}, nil
}

// Pass advances past a candidate without writing anything.
func (s *SwipeService) Pass(ctx context.Context, groupID, candidateID string) (string, error) {
	ctx, span := tracer.Start(ctx, "swipe.Pass")
	defer span.End()

	cursor, err := s.feed.Pass(ctx, groupID, candidateID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pass")
	}
	return cursor, err
}
