package patients

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamoAPI struct {
	items   map[string]map[string]types.AttributeValue
	putErr  error
	getErr  error
	lastPut *dynamodb.PutItemInput
}

func newFakeDynamoAPI() *fakeDynamoAPI {
	return &fakeDynamoAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamoAPI) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = params
	if f.putErr != nil {
		return nil, f.putErr
	}
	key := params.Item["token"].(*types.AttributeValueMemberS).Value
	if _, ok := f.items[key]; ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamoAPI) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	key := params.Key["token"].(*types.AttributeValueMemberS).Value
	item, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func TestDynamoTokenStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newFakeDynamoAPI()
	store := NewDynamoTokenStore(api, "patient-tokens")

	rec := TokenRecord{Token: "t-1", Ciphertext: "sealed", Provider: "Cardiology"}
	require.NoError(t, store.Put(ctx, rec))

	require.NotNil(t, api.lastPut)
	assert.Equal(t, "patient-tokens", *api.lastPut.TableName)
	assert.Equal(t, "attribute_not_exists(#t)", *api.lastPut.ConditionExpression)

	got, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "sealed", got.Ciphertext)
	assert.Equal(t, "Cardiology", got.Provider)
}

func TestDynamoTokenStore_ConditionalPutConflict(t *testing.T) {
	ctx := context.Background()
	store := NewDynamoTokenStore(newFakeDynamoAPI(), "patient-tokens")

	require.NoError(t, store.Put(ctx, TokenRecord{Token: "t-1", Ciphertext: "a"}))
	err := store.Put(ctx, TokenRecord{Token: "t-1", Ciphertext: "b"})
	assert.ErrorIs(t, err, ErrTokenExists)
}

func TestDynamoTokenStore_GetMissing(t *testing.T) {
	store := NewDynamoTokenStore(newFakeDynamoAPI(), "patient-tokens")
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestDynamoTokenStore_TransportErrors(t *testing.T) {
	ctx := context.Background()
	api := newFakeDynamoAPI()
	api.putErr = errors.New("throttled")
	api.getErr = errors.New("throttled")
	store := NewDynamoTokenStore(api, "patient-tokens")

	err := store.Put(ctx, TokenRecord{Token: "t-1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenExists)

	_, err = store.Get(ctx, "t-1")
	assert.Error(t, err)
}

func TestTokenRecordAttributeMarshalling(t *testing.T) {
	rec := TokenRecord{Token: "t-1", Ciphertext: "sealed", Provider: "Cardiology"}
	item, err := attributevalue.MarshalMap(rec)
	require.NoError(t, err)

	_, ok := item["token"].(*types.AttributeValueMemberS)
	assert.True(t, ok, "token must marshal as the string partition key")
}
