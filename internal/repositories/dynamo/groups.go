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

// CreateGroupForUser writes the group and claims it on the admin in one transaction.
func (s *Store) CreateGroupForUser(ctx context.Context, group models.Group) (models.Group, error) {
	if group.ID == "" {
		group.ID = idgen.NewID()
	}
	group.CreatedAt = s.now()

	item, err := attributevalue.MarshalMap(groupItem{
		GroupID:     group.ID,
		Name:        group.Name,
		Bio:         group.Bio,
		PhotoURL:    group.PhotoURL,
		AdminUserID: group.AdminUserID,
		CreatedAt:   group.CreatedAt,
	})
	if err != nil {
		return models.Group{}, fmt.Errorf("marshal group: %w", err)
	}
	now, err := attributevalue.Marshal(group.CreatedAt)
	if err != nil {
		return models.Group{}, fmt.Errorf("marshal timestamp: %w", err)
	}

	_, err = s.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(s.tables.Groups),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(groupId)"),
			}},
			{Update: &types.Update{
				TableName:           aws.String(s.tables.Users),
				Key:                 map[string]types.AttributeValue{"userId": str(group.AdminUserID)},
				UpdateExpression:    aws.String("SET groupId = :g, createdAt = if_not_exists(createdAt, :now)"),
				ConditionExpression: aws.String("attribute_not_exists(groupId)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":g":   str(group.ID),
					":now": now,
				},
			}},
		},
	})
	if canceledByCondition(err, 1) {
		return models.Group{}, repositories.ErrUserHasGroup
	}
	if err != nil {
		return models.Group{}, fmt.Errorf("create group: %w", err)
	}
	return group, nil
}

func (s *Store) GetGroup(ctx context.Context, groupID string) (models.Group, error) {
	av, err := s.getItem(ctx, s.tables.Groups, map[string]types.AttributeValue{"groupId": str(groupID)})
	if err != nil {
		return models.Group{}, err
	}
	if av == nil {
		return models.Group{}, repositories.ErrGroupNotFound
	}
	return decodeGroup(av)
}

// ListGroups scans every group and orders them by id.
func (s *Store) ListGroups(ctx context.Context) ([]models.Group, error) {
	items, err := s.scanAll(ctx, s.tables.Groups)
	if err != nil {
		return nil, err
	}
	groups := make([]models.Group, 0, len(items))
	for _, av := range items {
		g, err := decodeGroup(av)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups, nil
}

func (s *Store) EnsureUser(ctx context.Context, userID string) (models.User, error) {
	now, err := attributevalue.Marshal(s.now())
	if err != nil {
		return models.User{}, fmt.Errorf("marshal timestamp: %w", err)
	}
	out, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tables.Users),
		Key:                       map[string]types.AttributeValue{"userId": str(userID)},
		UpdateExpression:          aws.String("SET createdAt = if_not_exists(createdAt, :now)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":now": now},
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("ensure user: %w", err)
	}
	return decodeUser(out.Attributes)
}

func (s *Store) GetUser(ctx context.Context, userID string) (models.User, error) {
	av, err := s.getItem(ctx, s.tables.Users, map[string]types.AttributeValue{"userId": str(userID)})
	if err != nil {
		return models.User{}, err
	}
	if av == nil {
		return models.User{}, repositories.ErrUserNotFound
	}
	return decodeUser(av)
}
