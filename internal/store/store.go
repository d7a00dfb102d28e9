// Package store provides the keyed-item data access layer shared by all
// organization manager entities. A single DynamoDB table holds heterogeneous
// item kinds distinguished by tagged composite keys, with secondary indexes
// for parent-scoped and account-id lookups.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

// DynamoDBAPI is the subset of the DynamoDB client the store depends on.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ DynamoDBAPI = (*dynamodb.Client)(nil)

// Config holds configuration for the Store.
type Config struct {
	// TableName is the single table holding all item kinds.
	// Default: "organization-manager"
	TableName string

	// ByParentIndex is the GSI with sk as hash key and pk as range key,
	// used for parent-scoped listings (accounts of a unit).
	// Default: "sk-pk-index"
	ByParentIndex string

	// ByAccountIDIndex is the GSI keyed by the accountId attribute.
	// Default: "accountId-index"
	ByAccountIDIndex string

	// ByKindIndex is the GSI keyed by the kind attribute with pk as range
	// key, used for full enumerations of one item kind.
	// Default: "kind-index"
	ByKindIndex string
}

// DefaultConfig returns the table and index names used by the deployed stack.
func DefaultConfig() Config {
	return Config{
		TableName:        "organization-manager",
		ByParentIndex:    "sk-pk-index",
		ByAccountIDIndex: "accountId-index",
		ByKindIndex:      "kind-index",
	}
}

func (c *Config) validate() {
	if c.TableName == "" {
		c.TableName = "organization-manager"
	}
	if c.ByParentIndex == "" {
		c.ByParentIndex = "sk-pk-index"
	}
	if c.ByAccountIDIndex == "" {
		c.ByAccountIDIndex = "accountId-index"
	}
	if c.ByKindIndex == "" {
		c.ByKindIndex = "kind-index"
	}
}

// Item is a raw DynamoDB item.
type Item map[string]types.AttributeValue

// KeyPair addresses one item by its partition and sort keys.
type KeyPair struct {
	PK Key
	SK Key
}

// Store provides keyed-item operations over the shared table.
type Store struct {
	client DynamoDBAPI
	config Config
}

// New creates a new Store instance.
func New(client DynamoDBAPI, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// Table returns the configured table name.
func (s *Store) Table() string {
	return s.config.TableName
}

// Indexes returns the configured secondary index names.
func (s *Store) Indexes() (byParent, byAccountID, byKind string) {
	return s.config.ByParentIndex, s.config.ByAccountIDIndex, s.config.ByKindIndex
}

func attrKey(pk, sk Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk.String()},
		"sk": &types.AttributeValueMemberS{Value: sk.String()},
	}
}

// Get retrieves an item by key, returning ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, pk, sk Key) (Item, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       attrKey(pk, sk),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return Item(result.Item), nil
}

// Put writes an item unconditionally, replacing any existing item.
// The item must carry pk and sk attributes.
func (s *Store) Put(ctx context.Context, item Item) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.TableName),
		Item:      item,
	})
	return err
}

// PutNew writes an item only if no item with the same key exists,
// returning ErrAlreadyExists otherwise.
func (s *Store) PutNew(ctx context.Context, item Item) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.config.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk) AND attribute_not_exists(sk)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrAlreadyExists
	}
	return err
}

// Update applies SET updates to the named attributes of an existing item,
// returning ErrNotFound if the item does not exist.
func (s *Store) Update(ctx context.Context, pk, sk Key, set map[string]types.AttributeValue) error {
	var setClauses []string
	exprNames := map[string]string{}
	exprValues := map[string]types.AttributeValue{}

	i := 0
	for k, v := range set {
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = v
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.config.TableName),
		Key:                       attrKey(pk, sk),
		UpdateExpression:          aws.String("SET " + strings.Join(setClauses, ", ")),
		ConditionExpression:       aws.String("attribute_exists(pk)"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrNotFound
	}
	return err
}

// Delete removes an item by key. Deleting an absent item is not an error.
func (s *Store) Delete(ctx context.Context, pk, sk Key) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       attrKey(pk, sk),
	})
	return err
}

// Query describes a prefix query against the table or one of its indexes.
type Query struct {
	// Index is the optional GSI to query; empty queries the table itself.
	Index string

	// HashAttr is the hash key attribute; defaults to "pk".
	HashAttr string

	// HashValue is the hash key value to match.
	HashValue string

	// RangeAttr is the range key attribute; defaults to "sk".
	RangeAttr string

	// RangePrefix is an optional begins_with condition on the range key.
	RangePrefix string

	// Limit is the maximum number of items per page (0 = store default).
	Limit int32

	// StartKey resumes a paginated query from a prior page's LastKey.
	StartKey Item
}

// Page is one page of query results plus the continuation key, which is
// nil when no further data remains.
type Page struct {
	Items   []Item
	LastKey Item
}

// QueryPage runs a single query call, honoring limit and start key.
func (s *Store) QueryPage(ctx context.Context, q Query) (Page, error) {
	hashAttr := q.HashAttr
	if hashAttr == "" {
		hashAttr = "pk"
	}
	rangeAttr := q.RangeAttr
	if rangeAttr == "" {
		rangeAttr = "sk"
	}

	keyCond := "#hash = :hash"
	exprNames := map[string]string{"#hash": hashAttr}
	exprValues := map[string]types.AttributeValue{
		":hash": &types.AttributeValueMemberS{Value: q.HashValue},
	}
	if q.RangePrefix != "" {
		keyCond += " AND begins_with(#range, :prefix)"
		exprNames["#range"] = rangeAttr
		exprValues[":prefix"] = &types.AttributeValueMemberS{Value: q.RangePrefix}
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.TableName),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}
	if q.Index != "" {
		input.IndexName = aws.String(q.Index)
	}
	if q.Limit > 0 {
		input.Limit = aws.Int32(q.Limit)
	}
	if q.StartKey != nil {
		input.ExclusiveStartKey = q.StartKey
	}

	result, err := s.client.Query(ctx, input)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: make([]Item, 0, len(result.Items))}
	for _, raw := range result.Items {
		page.Items = append(page.Items, Item(raw))
	}
	if len(result.LastEvaluatedKey) > 0 {
		page.LastKey = Item(result.LastEvaluatedKey)
	}
	return page, nil
}

// QueryAll drains a query across however many pages it spans.
func (s *Store) QueryAll(ctx context.Context, q Query) ([]Item, error) {
	var items []Item
	for {
		page, err := s.QueryPage(ctx, q)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
		if page.LastKey == nil {
			return items, nil
		}
		q.StartKey = page.LastKey
	}
}

// NewPut builds a transactional put of an item.
func (s *Store) NewPut(item Item) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.config.TableName),
			Item:      item,
		},
	}
}

// NewDelete builds a transactional delete of a keyed item.
func (s *Store) NewDelete(pk, sk Key) types.TransactWriteItem {
	return types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(s.config.TableName),
			Key:       attrKey(pk, sk),
		},
	}
}

// NewConditionalPut builds a transactional put that fails if an item with
// the same key already exists.
func (s *Store) NewConditionalPut(item Item) types.TransactWriteItem {
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName:           aws.String(s.config.TableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(pk) AND attribute_not_exists(sk)"),
		},
	}
}

// TransactWrite applies all writes atomically, mapping cancellation
// reasons onto the package sentinels.
func (s *Store) TransactWrite(ctx context.Context, items ...types.TransactWriteItem) error {
	if len(items) == 0 {
		return nil
	}
	_, err := s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapTransactionError(err)
}

// BatchDelete removes the keyed items in chunks of the batch-write limit.
// Unprocessed keys are retried until the store stops making progress.
func (s *Store) BatchDelete(ctx context.Context, keys []KeyPair) error {
	const batchLimit = 25

	requests := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: attrKey(k.PK, k.SK)},
		})
	}

	for len(requests) > 0 {
		chunk := requests
		if len(chunk) > batchLimit {
			chunk = chunk[:batchLimit]
		}
		requests = requests[len(chunk):]

		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.config.TableName: chunk,
			},
		})
		if err != nil {
			return err
		}
		if unprocessed := out.UnprocessedItems[s.config.TableName]; len(unprocessed) > 0 {
			if len(unprocessed) == len(chunk) {
				return errors.New("store: batch delete made no progress")
			}
			requests = append(requests, unprocessed...)
		}
	}
	return nil
}

// mapTransactionError maps a transaction cancellation onto package sentinels.
// A conditional-check cancellation means a keyed item already existed.
func mapTransactionError(err error) error {
	if err == nil {
		return nil
	}
	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return ErrAlreadyExists
			}
		}
	}
	return err
}

// throttleCodes are the upstream error codes surfaced to callers as 429.
var throttleCodes = map[string]struct{}{
	"ThrottlingException":                    {},
	"ProvisionedThroughputExceededException": {},
	"RequestLimitExceeded":                   {},
	"TooManyRequestsException":               {},
	"LimitExceededException":                 {},
}

// IsThrottle reports whether err is an upstream throttling error.
func IsThrottle(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := throttleCodes[apiErr.ErrorCode()]
		return ok
	}
	return false
}
