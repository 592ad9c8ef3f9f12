package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"match-service/internal/idgen"
	"match-service/internal/models"
	"match-service/internal/repositories"
)

// Likes are partitioned by the liking group so its likes can be read back with a
// strongly consistent base-table query.
func likeKey(from, to string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"fromGroupId": str(from),
		"toGroupId":   str(to),
	}
}

// CreateLike puts the like only if its ordered pair has none yet; otherwise the
// stored like is read back.
func (s *Store) CreateLike(ctx context.Context, fromGroupID, toGroupID string) (models.Like, bool, error) {
	if fromGroupID == toGroupID {
		return models.Like{}, false, repositories.ErrSelfLike
	}
	for _, id := range []string{fromGroupID, toGroupID} {
		if _, err := s.GetGroup(ctx, id); err != nil {
			return models.Like{}, false, err
		}
	}

	like := models.Like{
		ID:          idgen.NewID(),
		FromGroupID: fromGroupID,
		ToGroupID:   toGroupID,
		CreatedAt:   s.now(),
	}
	item, err := attributevalue.MarshalMap(likeItem{
		LikeID:      like.ID,
		FromGroupID: like.FromGroupID,
		ToGroupID:   like.ToGroupID,
		CreatedAt:   like.CreatedAt,
	})
	if err != nil {
		return models.Like{}, false, fmt.Errorf("marshal like: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Likes),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(toGroupId)"),
	})
	if err == nil {
		return like, true, nil
	}
	if !isConditionFailed(err) {
		return models.Like{}, false, fmt.Errorf("put like: %w", err)
	}

	av, err := s.getItem(ctx, s.tables.Likes, likeKey(fromGroupID, toGroupID))
	if err != nil {
		return models.Like{}, false, err
	}
	if av == nil {
		return models.Like{}, false, fmt.Errorf("like %s vanished after conflict", models.LikeKey(fromGroupID, toGroupID))
	}
	existing, err := decodeLike(av)
	return existing, false, err
}

func (s *Store) HasLike(ctx context.Context, fromGroupID, toGroupID string) (bool, error) {
	av, err := s.getItem(ctx, s.tables.Likes, likeKey(fromGroupID, toGroupID))
	if err != nil {
		return false, err
	}
	return av != nil, nil
}

func (s *Store) ListLikedGroupIDs(ctx context.Context, fromGroupID string) ([]string, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.Likes),
		KeyConditionExpression:    aws.String("fromGroupId = :g"),
		ConsistentRead:            aws.Bool(true),
		ExpressionAttributeValues: map[string]types.AttributeValue{":g": str(fromGroupID)},
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, av := range items {
		like, err := decodeLike(av)
		if err != nil {
			return nil, err
		}
		ids = append(ids, like.ToGroupID)
	}
	sort.Strings(ids)
	return ids, nil
}
