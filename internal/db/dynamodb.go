package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/redditcanon/internal/table"
	"github.com/spacesedan/redditcanon/internal/utils"
)

const (
	DYNAMO_KEY_ATTRIBUTE    = "pk"
	DYNAMO_EXPIRY_ATTRIBUTE = "expires_at"
	MAX_UNPROCESSED_RETRIES = 3
)

// BatchWriter is the slice of the DynamoDB client the exporter needs.
type BatchWriter interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoExporter writes table rows as items keyed by "type#id".
type DynamoExporter struct {
	client    BatchWriter
	tableName string
	// TTL sets expires_at on every item when positive.
	TTL     time.Duration
	Backoff time.Duration
}

func NewDynamoExporter(client BatchWriter, tableName string) *DynamoExporter {
	return &DynamoExporter{
		client:    client,
		tableName: tableName,
		Backoff:   500 * time.Millisecond,
	}
}

// Export writes every row and returns how many were accepted by DynamoDB.
func (e *DynamoExporter) Export(ctx context.Context, t *table.Table) (int, error) {
	items, err := e.items(t)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, batch := range utils.Batches(items, utils.DYNAMO_BATCH_SIZE) {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return written, ctx.Err()
		default:
		}

		requests := make([]types.WriteRequest, 0, len(batch))
		for _, item := range batch {
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		left, err := e.writeBatch(ctx, requests)
		if err != nil {
			return written, err
		}
		written += len(batch) - left
	}

	slog.Info("[DynamoDB] Exported table",
		slog.String("table", e.tableName),
		slog.String("source", t.Name),
		slog.Int("written", written),
		slog.Int("rows", t.Len()))
	return written, nil
}

// writeBatch writes one batch, retrying unprocessed items, and returns how
// many items were still unprocessed when it gave up.
func (e *DynamoExporter) writeBatch(ctx context.Context, requests []types.WriteRequest) (int, error) {
	out, err := e.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{e.tableName: requests},
	})
	if err != nil {
		return 0, fmt.Errorf("[DynamoDB] Failed to batch write rows: %w", err)
	}

	wait := e.Backoff
	for retry := 0; len(out.UnprocessedItems[e.tableName]) > 0 && retry < MAX_UNPROCESSED_RETRIES; retry++ {
		slog.Warn("[DynamoDB] Retrying unprocessed items...",
			slog.Int("retry_attempt", retry+1),
			slog.Int("remaining_items", len(out.UnprocessedItems[e.tableName])))

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2

		out, err = e.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return 0, fmt.Errorf("[DynamoDB] Failed to retry batch write: %w", err)
		}
	}

	left := len(out.UnprocessedItems[e.tableName])
	if left > 0 {
		slog.Error("[DynamoDB] Some items were not written even after retries",
			slog.Int("remaining_items", left))
	}
	return left, nil
}

func (e *DynamoExporter) items(t *table.Table) ([]map[string]types.AttributeValue, error) {
	var expires int64
	if e.TTL > 0 {
		expires = time.Now().Add(e.TTL).Unix()
	}

	items := make([]map[string]types.AttributeValue, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		doc := make(map[string]any, len(t.Columns)+2)
		for j, c := range t.Columns {
			switch v := t.Rows[i][j].(type) {
			case nil:
			case time.Time:
				doc[c.Name] = v.UTC().Format(time.RFC3339)
			default:
				doc[c.Name] = v
			}
		}
		doc[DYNAMO_KEY_ATTRIBUTE] = fmt.Sprintf("%v#%v", t.Value(i, table.ColType), t.Value(i, table.ColID))
		if expires > 0 {
			doc[DYNAMO_EXPIRY_ATTRIBUTE] = expires
		}

		item, err := attributevalue.MarshalMap(doc)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] marshal row %d of %s: %w", i, t.Name, err)
		}
		items = append(items, item)
	}
	return items, nil
}
