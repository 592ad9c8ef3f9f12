package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"match-service/internal/idgen"
	"match-service/internal/repositories"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Tables holds the physical table names.
type Tables struct {
	Groups   string
	Users    string
	Likes    string
	Matches  string
	Messages string
}

// TablesWithPrefix derives table names for an environment prefix.
func TablesWithPrefix(prefix string) Tables {
	return Tables{
		Groups:   prefix + "Groups",
		Users:    prefix + "Users",
		Likes:    prefix + "Likes",
		Matches:  prefix + "Matches",
		Messages: prefix + "MatchMessages",
	}
}

const (
	matchesByGroupA    = "groupA-index"
	matchesByGroupB    = "groupB-index"
	sortKeyTimeLayout  = "2006-01-02T15:04:05.000000000Z"
	conditionFailedTxn = "ConditionalCheckFailed"
)

// Store implements the repository interfaces on DynamoDB.
type Store struct {
	api    API
	tables Tables
	seq    *idgen.Sequencer
	now    func() time.Time
}

// NewClient loads the default AWS configuration. endpoint overrides the service URL
// for DynamoDB Local.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// New builds a Store.
func New(api API, tables Tables, seq *idgen.Sequencer) *Store {
	return &Store{
		api:    api,
		tables: tables,
		seq:    seq,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Bundle exposes the store as a repositories.Store.
func (s *Store) Bundle() repositories.Store {
	return repositories.Store{
		Groups:   s,
		Users:    s,
		Likes:    s,
		Matches:  s,
		Messages: s,
		Ping:     s.Ping,
		Close:    func() error { return nil },
	}
}

// Ping checks that the groups table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tables.Groups)})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.tables.Groups, err)
	}
	return nil
}

func str(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// canceledByCondition reports whether the transaction item at index failed its condition.
func canceledByCondition(err error, index int) bool {
	var canceled *types.TransactionCanceledException
	if !errors.As(err, &canceled) || index >= len(canceled.CancellationReasons) {
		return false
	}
	return aws.ToString(canceled.CancellationReasons[index].Code) == conditionFailedTxn
}

func (s *Store) getItem(ctx context.Context, table string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item from table '%s': %w", table, err)
	}
	return out.Item, nil
}

func (s *Store) queryAll(ctx context.Context, in *dynamodb.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	pages := dynamodb.NewQueryPaginator(s.api, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query table '%s': %w", aws.ToString(in.TableName), err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

func (s *Store) scanAll(ctx context.Context, table string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	pages := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{TableName: aws.String(table)})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan table '%s': %w", table, err)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

var (
	_ repositories.GroupRepository   = (*Store)(nil)
	_ repositories.UserRepository    = (*Store)(nil)
	_ repositories.LikeRepository    = (*Store)(nil)
	_ repositories.MatchRepository   = (*Store)(nil)
	_ repositories.MessageRepository = (*Store)(nil)
)
