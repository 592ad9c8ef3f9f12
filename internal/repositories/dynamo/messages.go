package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"match-service/internal/idgen"
	"match-service/internal/models"
)

// CreateMessage appends a message under a sort key of timestamp and sequence.
func (s *Store) CreateMessage(ctx context.Context, matchID, authorGroupID, text string) (models.Message, error) {
	if _, err := s.GetMatch(ctx, matchID); err != nil {
		return models.Message{}, err
	}
	seq, err := s.seq.Next()
	if err != nil {
		return models.Message{}, err
	}

	msg := models.Message{
		ID:            idgen.NewID(),
		Seq:           seq,
		MatchID:       matchID,
		AuthorGroupID: authorGroupID,
		Text:          text,
		CreatedAt:     s.now(),
	}
	item, err := attributevalue.MarshalMap(messageItem{
		MatchID:       msg.MatchID,
		SortKey:       messageSortKey(msg.CreatedAt, msg.Seq),
		MessageID:     msg.ID,
		Seq:           msg.Seq,
		AuthorGroupID: msg.AuthorGroupID,
		Text:          msg.Text,
		CreatedAt:     msg.CreatedAt,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("marshal message: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Messages),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(sortKey)"),
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("put message: %w", err)
	}
	return msg, nil
}

// ListMessages reads the conversation in sort key order.
func (s *Store) ListMessages(ctx context.Context, matchID string) ([]models.Message, error) {
	items, err := s.queryAll(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tables.Messages),
		KeyConditionExpression:    aws.String("matchId = :m"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":m": str(matchID)},
		ScanIndexForward:          aws.Bool(true),
		ConsistentRead:            aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	msgs := make([]models.Message, 0, len(items))
	for _, av := range items {
		m, err := decodeMessage(av)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
