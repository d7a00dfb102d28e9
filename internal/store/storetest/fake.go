// Package storetest provides an in-memory stand-in for the DynamoDB client
// used by the store, with enough conditional-write, query, transaction, and
// batch semantics to exercise the data access layers without a database.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type item = map[string]types.AttributeValue

// Fake is an in-memory DynamoDB table. Items are keyed by pk and sk string
// attributes; queries scan the stored items, so secondary index queries work
// against any attribute without index definitions.
type Fake struct {
	mu    sync.Mutex
	items map[string]item

	// Calls counts invocations per operation name.
	Calls map[string]int
}

func New() *Fake {
	return &Fake{
		items: map[string]item{},
		Calls: map[string]int{},
	}
}

func stringAttr(it item, name string) string {
	if attr, ok := it[name].(*types.AttributeValueMemberS); ok {
		return attr.Value
	}
	return ""
}

func itemKey(it item) string {
	return stringAttr(it, "pk") + "|" + stringAttr(it, "sk")
}

// Len returns the number of stored items.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *Fake) record(op string) {
	f.Calls[op]++
}

func (f *Fake) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetItem")

	stored, ok := f.items[itemKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: stored}, nil
}

func (f *Fake) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("PutItem")

	key := itemKey(params.Item)
	if isNotExistsCondition(params.ConditionExpression) {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("item exists")}
		}
	}
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteItem")

	delete(f.items, itemKey(params.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *Fake) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateItem")

	key := itemKey(params.Key)
	stored, exists := f.items[key]
	if !exists {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("item absent")}
	}

	// Apply "SET #attrN = :valN" clauses.
	expr := strings.TrimPrefix(aws.ToString(params.UpdateExpression), "SET ")
	for _, clause := range strings.Split(expr, ",") {
		sides := strings.SplitN(strings.TrimSpace(clause), "=", 2)
		if len(sides) != 2 {
			continue
		}
		nameRef := strings.TrimSpace(sides[0])
		valueRef := strings.TrimSpace(sides[1])
		attrName, ok := params.ExpressionAttributeNames[nameRef]
		if !ok {
			attrName = nameRef
		}
		stored[attrName] = params.ExpressionAttributeValues[valueRef]
	}
	f.items[key] = stored
	return &dynamodb.UpdateItemOutput{}, nil
}

func (f *Fake) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Query")

	hashAttr, hashValue, rangeAttr, rangePrefix := parseKeyCondition(params)

	var matched []item
	for _, stored := range f.items {
		if stringAttr(stored, hashAttr) != hashValue {
			continue
		}
		if rangePrefix != "" && !strings.HasPrefix(stringAttr(stored, rangeAttr), rangePrefix) {
			continue
		}
		matched = append(matched, stored)
	}

	sortAttr := rangeAttr
	if sortAttr == "" {
		sortAttr = "sk"
	}
	sort.Slice(matched, func(i, j int) bool {
		return stringAttr(matched[i], sortAttr) < stringAttr(matched[j], sortAttr)
	})

	if params.ExclusiveStartKey != nil {
		after := stringAttr(params.ExclusiveStartKey, sortAttr)
		var resumed []item
		for _, stored := range matched {
			if stringAttr(stored, sortAttr) > after {
				resumed = append(resumed, stored)
			}
		}
		matched = resumed
	}

	out := &dynamodb.QueryOutput{}
	limit := len(matched)
	if params.Limit != nil && int(*params.Limit) < limit {
		limit = int(*params.Limit)
	}
	out.Items = make([]item, 0, limit)
	for _, stored := range matched[:limit] {
		out.Items = append(out.Items, stored)
	}
	if limit < len(matched) {
		last := matched[limit-1]
		out.LastEvaluatedKey = item{
			"pk": last["pk"],
			"sk": last["sk"],
		}
	}
	return out, nil
}

func (f *Fake) TransactWriteItems(_ context.Context, params *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("TransactWriteItems")

	// Validate conditions before applying anything.
	reasons := make([]types.CancellationReason, len(params.TransactItems))
	failed := false
	for i, tx := range params.TransactItems {
		if tx.Put != nil && isNotExistsCondition(tx.Put.ConditionExpression) {
			if _, exists := f.items[itemKey(tx.Put.Item)]; exists {
				reasons[i] = types.CancellationReason{Code: aws.String("ConditionalCheckFailed")}
				failed = true
				continue
			}
		}
		reasons[i] = types.CancellationReason{Code: aws.String("None")}
	}
	if failed {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("transaction canceled"),
			CancellationReasons: reasons,
		}
	}

	for _, tx := range params.TransactItems {
		switch {
		case tx.Put != nil:
			f.items[itemKey(tx.Put.Item)] = tx.Put.Item
		case tx.Delete != nil:
			delete(f.items, itemKey(tx.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func (f *Fake) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("BatchWriteItem")

	for _, requests := range params.RequestItems {
		for _, request := range requests {
			if request.DeleteRequest != nil {
				delete(f.items, itemKey(request.DeleteRequest.Key))
			}
			if request.PutRequest != nil {
				f.items[itemKey(request.PutRequest.Item)] = request.PutRequest.Item
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func isNotExistsCondition(expr *string) bool {
	return expr != nil && strings.Contains(*expr, "attribute_not_exists")
}

// parseKeyCondition extracts the hash equality and optional begins_with
// range condition from a query's key condition expression.
func parseKeyCondition(params *dynamodb.QueryInput) (hashAttr, hashValue, rangeAttr, rangePrefix string) {
	expr := aws.ToString(params.KeyConditionExpression)

	resolveName := func(ref string) string {
		if name, ok := params.ExpressionAttributeNames[ref]; ok {
			return name
		}
		return ref
	}
	resolveValue := func(ref string) string {
		if attr, ok := params.ExpressionAttributeValues[ref].(*types.AttributeValueMemberS); ok {
			return attr.Value
		}
		return ""
	}

	for _, clause := range strings.Split(expr, " AND ") {
		clause = strings.TrimSpace(clause)
		if strings.HasPrefix(clause, "begins_with(") {
			inner := strings.TrimSuffix(strings.TrimPrefix(clause, "begins_with("), ")")
			parts := strings.SplitN(inner, ",", 2)
			if len(parts) == 2 {
				rangeAttr = resolveName(strings.TrimSpace(parts[0]))
				rangePrefix = resolveValue(strings.TrimSpace(parts[1]))
			}
			continue
		}
		sides := strings.SplitN(clause, "=", 2)
		if len(sides) == 2 {
			hashAttr = resolveName(strings.TrimSpace(sides[0]))
			hashValue = resolveValue(strings.TrimSpace(sides[1]))
		}
	}
	return hashAttr, hashValue, rangeAttr, rangePrefix
}
