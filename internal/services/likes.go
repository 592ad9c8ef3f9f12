package services

import (
	"context"
	"time"

	"match-service/internal/models"
	"match-service/internal/observability"
	"match-service/internal/repositories"
)

// LikeLedger records directional likes.
type LikeLedger struct {
	likes     repositories.LikeRepository
	publisher EventPublisher
}

func NewLikeLedger(likes repositories.LikeRepository, publisher EventPublisher) *LikeLedger {
	return &LikeLedger{likes: likes, publisher: publisher}
}

// RecordLike stores the like from -> to. Repeating it returns the original like
// with created=false.
func (l *LikeLedger) RecordLike(ctx context.Context, fromGroupID, toGroupID string) (models.Like, bool, error) {
	const op = "likes.RecordLike"
	if err := validatePair(op, fromGroupID, toGroupID); err != nil {
		return models.Like{}, false, err
	}

	like, created, err := l.likes.CreateLike(ctx, fromGroupID, toGroupID)
	if err != nil {
		return models.Like{}, false, storeError(op, err)
	}

	if !created {
		observability.IncLike("duplicate")
		return like, false, nil
	}
	observability.IncLike("created")
	publish(ctx, l.publisher, RoutingLikeRecorded, "like_recorded", LikeRecordedEvent{
		LikeID:      like.ID,
		FromGroupID: like.FromGroupID,
		ToGroupID:   like.ToGroupID,
		CreatedAt:   like.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	return like, true, nil
}
