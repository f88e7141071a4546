package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// dynamoAPI is the subset of the DynamoDB client the store uses.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoTokenStore persists token records in a DynamoDB table keyed by
// token. The conditional put enforces the never-reused contract at the
// storage layer as well.
type DynamoTokenStore struct {
	client dynamoAPI
	table  string
}

// NewDynamoTokenStore builds the store over a DynamoDB client.
func NewDynamoTokenStore(client dynamoAPI, table string) *DynamoTokenStore {
	if client == nil {
		panic("patients: dynamodb client required")
	}
	if table == "" {
		panic("patients: table name required")
	}
	return &DynamoTokenStore{client: client, table: table}
}

var _ TokenStore = (*DynamoTokenStore)(nil)

func (s *DynamoTokenStore) Put(ctx context.Context, rec TokenRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("patients: marshal token record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{
			"#t": "token",
		},
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return ErrTokenExists
		}
		return fmt.Errorf("patients: put token record: %w", err)
	}
	return nil
}

func (s *DynamoTokenStore) Get(ctx context.Context, token string) (TokenRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"token": &types.AttributeValueMemberS{Value: token},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return TokenRecord{}, fmt.Errorf("patients: get token record: %w", err)
	}
	if len(out.Item) == 0 {
		return TokenRecord{}, ErrTokenNotFound
	}

	var rec TokenRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return TokenRecord{}, fmt.Errorf("patients: unmarshal token record: %w", err)
	}
	return rec, nil
}
