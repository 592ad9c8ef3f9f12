package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"match-service/internal/models"
	"match-service/internal/repositories"
)

// matchNamespace seeds name-based match ids so every pair maps to exactly one item key.
var matchNamespace = uuid.MustParse("5b0c8f4e-6c1d-4f43-9a55-2d6f3c7e9a10")

// MatchID is the deterministic id of the match for the unordered pair {a,b}.
func MatchID(a, b string) string {
	return uuid.NewSHA1(matchNamespace, []byte(models.PairKey(a, b))).String()
}

// CreateMatchIfMutual reads both likes with strong consistency and then puts the
// match under a condition on its pair-derived key.
func (s *Store) CreateMatchIfMutual(ctx context.Context, groupA, groupB string) (*models.Match, bool, error) {
	if groupA == groupB {
		return nil, false, repositories.ErrSelfLike
	}
	for _, pair := range [][2]string{{groupA, groupB}, {groupB, groupA}} {
		ok, err := s.HasLike(ctx, pair[0], pair[1])
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
	}

	match := models.NewMatch(MatchID(groupA, groupB), groupA, groupB, s.now())
	item, err := attributevalue.MarshalMap(matchItem{
		MatchID:   match.ID,
		PairKey:   match.PairKey,
		GroupA:    match.GroupA,
		GroupB:    match.GroupB,
		CreatedAt: match.CreatedAt,
	})
	if err != nil {
		return nil, false, fmt.Errorf("marshal match: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Matches),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(matchId)"),
	})
	if err == nil {
		return &match, true, nil
	}
	if !isConditionFailed(err) {
		return nil, false, fmt.Errorf("put match: %w", err)
	}

	existing, err := s.GetMatch(ctx, match.ID)
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (s *Store) GetMatch(ctx context.Context, matchID string) (models.Match, error) {
	av, err := s.getItem(ctx, s.tables.Matches, map[string]types.AttributeValue{"matchId": str(matchID)})
	if err != nil {
		return models.Match{}, err
	}
	if av == nil {
		return models.Match{}, repositories.ErrMatchNotFound
	}
	return decodeMatch(av)
}

// ListMatchesForGroup queries both side indexes and merges them, newest first.
func (s *Store) ListMatchesForGroup(ctx context.Context, groupID string) ([]models.Match, error) {
	var matches []models.Match
	for _, side := range []struct{ index, attr string }{
		{matchesByGroupA, "groupA"},
		{matchesByGroupB, "groupB"},
	} {
		items, err := s.queryAll(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tables.Matches),
			IndexName:                 aws.String(side.index),
			KeyConditionExpression:    aws.String("#g = :g"),
			ExpressionAttributeNames:  map[string]string{"#g": side.attr},
			ExpressionAttributeValues: map[string]types.AttributeValue{":g": str(groupID)},
		})
		if err != nil {
			return nil, err
		}
		for _, av := range items {
			m, err := decodeMatch(av)
			if err != nil {
				return nil, err
			}
			matches = append(matches, m)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})
	return matches, nil
}
