package dynamo

import (
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"match-service/internal/models"
)

type groupItem struct {
	GroupID     string    `dynamodbav:"groupId"`
	Name        string    `dynamodbav:"name"`
	Bio         string    `dynamodbav:"bio"`
	PhotoURL    string    `dynamodbav:"photoUrl"`
	AdminUserID string    `dynamodbav:"adminUserId"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
}

type userItem struct {
	UserID    string    `dynamodbav:"userId"`
	GroupID   string    `dynamodbav:"groupId,omitempty"`
	CreatedAt time.Time `dynamodbav:"createdAt"`
}

type likeItem struct {
	LikeID      string    `dynamodbav:"likeId"`
	FromGroupID string    `dynamodbav:"fromGroupId"`
	ToGroupID   string    `dynamodbav:"toGroupId"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
}

type matchItem struct {
	MatchID   string    `dynamodbav:"matchId"`
	PairKey   string    `dynamodbav:"pairKey"`
	GroupA    string    `dynamodbav:"groupA"`
	GroupB    string    `dynamodbav:"groupB"`
	CreatedAt time.Time `dynamodbav:"createdAt"`
}

type messageItem struct {
	MatchID       string    `dynamodbav:"matchId"`
	SortKey       string    `dynamodbav:"sortKey"`
	MessageID     string    `dynamodbav:"messageId"`
	Seq           int64     `dynamodbav:"seq"`
	AuthorGroupID string    `dynamodbav:"authorGroupId"`
	Text          string    `dynamodbav:"text"`
	CreatedAt     time.Time `dynamodbav:"createdAt"`
}

// messageSortKey orders messages by timestamp, then by sequence.
func messageSortKey(createdAt time.Time, seq int64) string {
	return fmt.Sprintf("%s#%020d", createdAt.UTC().Format(sortKeyTimeLayout), seq)
}

func decodeGroup(av map[string]types.AttributeValue) (models.Group, error) {
	var item groupItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return models.Group{}, fmt.Errorf("%w: group: %v", models.ErrInvalidRecord, err)
	}
	g := models.Group{
		ID:          item.GroupID,
		Name:        item.Name,
		Bio:         item.Bio,
		PhotoURL:    item.PhotoURL,
		AdminUserID: item.AdminUserID,
		CreatedAt:   item.CreatedAt,
	}
	return g, g.Validate()
}

func decodeUser(av map[string]types.AttributeValue) (models.User, error) {
	var item userItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return models.User{}, fmt.Errorf("%w: user: %v", models.ErrInvalidRecord, err)
	}
	if item.UserID == "" {
		return models.User{}, fmt.Errorf("%w: user id is empty", models.ErrInvalidRecord)
	}
	u := models.User{ID: item.UserID, CreatedAt: item.CreatedAt}
	if item.GroupID != "" {
		groupID := item.GroupID
		u.GroupID = &groupID
	}
	return u, nil
}

func decodeLike(av map[string]types.AttributeValue) (models.Like, error) {
	var item likeItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return models.Like{}, fmt.Errorf("%w: like: %v", models.ErrInvalidRecord, err)
	}
	l := models.Like{
		ID:          item.LikeID,
		FromGroupID: item.FromGroupID,
		ToGroupID:   item.ToGroupID,
		CreatedAt:   item.CreatedAt,
	}
	if err := l.Validate(); err != nil {
		return models.Like{}, err
	}
	return l, nil
}

func decodeMatch(av map[string]types.AttributeValue) (models.Match, error) {
	var item matchItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return models.Match{}, fmt.Errorf("%w: match: %v", models.ErrInvalidRecord, err)
	}
	m := models.Match{
		ID:        item.MatchID,
		PairKey:   item.PairKey,
		GroupA:    item.GroupA,
		GroupB:    item.GroupB,
		CreatedAt: item.CreatedAt,
	}
	return m, m.Validate()
}

func decodeMessage(av map[string]types.AttributeValue) (models.Message, error) {
	var item messageItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return models.Message{}, fmt.Errorf("%w: message: %v", models.ErrInvalidRecord, err)
	}
	m := models.Message{
		ID:            item.MessageID,
		Seq:           item.Seq,
		MatchID:       item.MatchID,
		AuthorGroupID: item.AuthorGroupID,
		Text:          item.Text,
		CreatedAt:     item.CreatedAt,
	}
	return m, m.Validate()
}
