// Package ddb provides the single-table DynamoDB repository for presentations.
package ddb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/OneMuppet/ai-transformation-presentation-api/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// batchMax is the hard ceiling DynamoDB imposes on BatchWriteItem.
const batchMax = 25

// API is the subset of the DynamoDB client the repository uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Repo wraps a DynamoDB client and table name for presentation operations.
type Repo struct {
	db    API
	table string
	index string
	log   *zap.Logger

	retryDelay time.Duration
}

// NewRepo creates a repository bound to the given table. The owner index is
// expected to exist as a GSI named "GSI1" over GSI1PK/GSI1SK.
func NewRepo(db API, table string, log *zap.Logger) *Repo {
	return &Repo{
		db:         db,
		table:      table,
		index:      "GSI1",
		log:        log,
		retryDelay: time.Second,
	}
}

// nowMillis returns the current time in epoch milliseconds.
func nowMillis() int64 { return time.Now().UnixMilli() }

// GetPresentationMetadata fetches the metadata record by id. A missing
// record returns (nil, nil), not an error.
func (r *Repo) GetPresentationMetadata(ctx context.Context, id string) (*models.PresentationMetadata, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       metadataKey(id),
	})
	if err != nil {
		r.log.Error("get metadata failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var meta models.PresentationMetadata
	if err := attributevalue.UnmarshalMap(out.Item, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// GetPresentation assembles the full read model: metadata plus all slides
// sorted ascending by numeric slide index. A presentation with no slide
// records yields an empty slide list.
func (r *Repo) GetPresentation(ctx context.Context, id string) (*models.Presentation, error) {
	meta, err := r.GetPresentationMetadata(ctx, id)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, nil
	}

	items, err := r.queryPartition(ctx, aws.String("begins_with(SK, :skPrefix)"), map[string]types.AttributeValue{
		":pk":       &types.AttributeValueMemberS{Value: PresentationPK(id)},
		":skPrefix": &types.AttributeValueMemberS{Value: slidePrefix},
	})
	if err != nil {
		r.log.Error("query slides failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	records := make([]models.SlideRecord, 0, len(items))
	for _, item := range items {
		var rec models.SlideRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal slide: %w", err)
		}
		records = append(records, rec)
	}
	// Sort numerically; the padded sort key agrees for index < 1000 but the
	// numeric field is authoritative.
	sort.Slice(records, func(i, j int) bool { return records[i].SlideIndex < records[j].SlideIndex })

	slides := make([]models.SlideContent, 0, len(records))
	for _, rec := range records {
		slides = append(slides, rec.Slide)
	}

	return &models.Presentation{
		ID:          meta.ID,
		Title:       meta.Title,
		Description: meta.Description,
		UserID:      meta.UserID,
		Status:      meta.Status,
		Theme:       meta.Theme,
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.UpdatedAt,
		Slides:      slides,
	}, nil
}

// SavePresentationMetadata upserts the metadata record. The original
// createdAt is preserved by reading the existing record first; this
// read-then-write is not isolated against concurrent saves of the same id,
// which is acceptable since presentation creation is single-writer per id.
func (r *Repo) SavePresentationMetadata(ctx context.Context, meta *models.PresentationMetadata) error {
	existing, err := r.GetPresentationMetadata(ctx, meta.ID)
	if err != nil {
		return err
	}

	now := nowMillis()
	record := *meta
	record.PK = PresentationPK(meta.ID)
	record.SK = MetadataSK()
	record.GSI1PK = UserGSIPK(meta.UserID)
	record.GSI1SK = PresentationPK(meta.ID)
	record.UpdatedAt = now
	if existing != nil {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt == 0 {
		record.CreatedAt = now
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if _, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		r.log.Error("put metadata failed", zap.String("id", meta.ID), zap.Error(err))
		return err
	}
	return nil
}

// SaveSlide upserts a single slide at the given index.
func (r *Repo) SaveSlide(ctx context.Context, id string, index int, slide models.SlideContent) error {
	if err := checkSlideIndex(index); err != nil {
		return err
	}
	rec := models.SlideRecord{
		PK:         PresentationPK(id),
		SK:         SlideSK(index),
		SlideIndex: index,
		Slide:      slide,
		UpdatedAt:  nowMillis(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal slide: %w", err)
	}
	if _, err := r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		r.log.Error("put slide failed", zap.String("id", id), zap.Int("index", index), zap.Error(err))
		return err
	}
	return nil
}

// SaveSlides replaces the slide list: one record per array position, written
// in batches of 25. Records a batch leaves unprocessed are retried once
// after a fixed delay; anything still unprocessed after the retry is logged
// and dropped. This operation never deletes records beyond the new array's
// length; callers shrinking a presentation must delete trailing slides.
func (r *Repo) SaveSlides(ctx context.Context, id string, slides []models.SlideContent) error {
	if len(slides) > 0 {
		if err := checkSlideIndex(len(slides) - 1); err != nil {
			return err
		}
	}

	now := nowMillis()
	requests := make([]types.WriteRequest, 0, len(slides))
	for i, slide := range slides {
		rec := models.SlideRecord{
			PK:         PresentationPK(id),
			SK:         SlideSK(i),
			SlideIndex: i,
			Slide:      slide,
			UpdatedAt:  now,
		}
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return fmt.Errorf("marshal slide %d: %w", i, err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}
	return r.batchWrite(ctx, requests)
}

// DeleteSlide removes the slide record at the given index. Used by the
// slide-deletion flow to drop the trailing record after a shrinking resave.
func (r *Repo) DeleteSlide(ctx context.Context, id string, index int) error {
	if err := checkSlideIndex(index); err != nil {
		return err
	}
	if _, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: PresentationPK(id)},
			"SK": &types.AttributeValueMemberS{Value: SlideSK(index)},
		},
	}); err != nil {
		r.log.Error("delete slide failed", zap.String("id", id), zap.Int("index", index), zap.Error(err))
		return err
	}
	return nil
}

// UpdatePresentationStatus sets status and updatedAt. The error message is
// written only when non-empty; an existing errorMessage is never cleared,
// so a later transition to completed leaves a stale message behind.
func (r *Repo) UpdatePresentationStatus(ctx context.Context, id string, status models.PresentationStatus, errorMessage string) error {
	expr := "SET #status = :status, updatedAt = :updatedAt"
	values := map[string]types.AttributeValue{
		":status":    &types.AttributeValueMemberS{Value: string(status)},
		":updatedAt": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMillis())},
	}
	if errorMessage != "" {
		expr += ", errorMessage = :errorMessage"
		values[":errorMessage"] = &types.AttributeValueMemberS{Value: errorMessage}
	}

	if _, err := r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       metadataKey(id),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  map[string]string{"#status": "status"},
		ExpressionAttributeValues: values,
	}); err != nil {
		r.log.Error("update status failed", zap.String("id", id), zap.String("status", string(status)), zap.Error(err))
		return err
	}
	return nil
}

// MetadataUpdate carries the mutable metadata fields for a partial update.
// A nil field is left untouched; there is no way to clear a field through
// this operation.
type MetadataUpdate struct {
	Title       *string
	Description *string
	Theme       *models.Theme
}

// UpdatePresentationMetadata applies a partial update of title, description
// and theme. updatedAt is bumped even when no field is provided.
func (r *Repo) UpdatePresentationMetadata(ctx context.Context, id string, upd MetadataUpdate) error {
	expr := "SET updatedAt = :updatedAt"
	names := map[string]string{}
	values := map[string]types.AttributeValue{
		":updatedAt": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", nowMillis())},
	}

	if upd.Title != nil {
		expr += ", title = :title"
		values[":title"] = &types.AttributeValueMemberS{Value: *upd.Title}
	}
	if upd.Description != nil {
		expr += ", description = :description"
		values[":description"] = &types.AttributeValueMemberS{Value: *upd.Description}
	}
	if upd.Theme != nil {
		themeAV, err := attributevalue.Marshal(upd.Theme)
		if err != nil {
			return fmt.Errorf("marshal theme: %w", err)
		}
		expr += ", #theme = :theme"
		names["#theme"] = "theme"
		values[":theme"] = themeAV
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       metadataKey(id),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeValues: values,
	}
	if len(names) > 0 {
		input.ExpressionAttributeNames = names
	}
	if _, err := r.db.UpdateItem(ctx, input); err != nil {
		r.log.Error("update metadata failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// GetUserPresentations lists all presentations owned by the given user,
// sorted descending by createdAt. The index key does not encode creation
// time, so the sort happens read-side; ties break on id for a
// deterministic order.
func (r *Repo) GetUserPresentations(ctx context.Context, userID string) ([]models.PresentationMetadata, error) {
	var out []models.PresentationMetadata
	var startKey map[string]types.AttributeValue
	for {
		resp, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.table),
			IndexName:              aws.String(r.index),
			KeyConditionExpression: aws.String("GSI1PK = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: UserGSIPK(userID)},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			r.log.Error("query user presentations failed", zap.String("userId", userID), zap.Error(err))
			return nil, err
		}
		for _, item := range resp.Items {
			var meta models.PresentationMetadata
			if err := attributevalue.UnmarshalMap(item, &meta); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
			out = append(out, meta)
		}
		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// DeletePresentation removes the metadata record and every slide under the
// presentation's partition, in batches of 25. Deleting a nonexistent
// presentation is a silent no-op.
func (r *Repo) DeletePresentation(ctx context.Context, id string) error {
	items, err := r.queryPartition(ctx, nil, map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: PresentationPK(id)},
	})
	if err != nil {
		r.log.Error("query for delete failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if len(items) == 0 {
		return nil
	}

	requests := make([]types.WriteRequest, 0, len(items))
	for _, item := range items {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{"PK": item["PK"], "SK": item["SK"]},
			},
		})
	}
	return r.batchWrite(ctx, requests)
}

// queryPartition pages through all items matching the key condition,
// optionally constrained by a sort-key condition.
func (r *Repo) queryPartition(ctx context.Context, skCondition *string, values map[string]types.AttributeValue) ([]map[string]types.AttributeValue, error) {
	keyCondition := "PK = :pk"
	if skCondition != nil {
		keyCondition += " AND " + *skCondition
	}
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		resp, err := r.db.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.table),
			KeyConditionExpression:    aws.String(keyCondition),
			ExpressionAttributeValues: values,
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, resp.Items...)
		if resp.LastEvaluatedKey == nil {
			break
		}
		startKey = resp.LastEvaluatedKey
	}
	return items, nil
}

// batchWrite issues the requests in chunks of 25, then retries whatever the
// service left unprocessed exactly once after a fixed delay. Entries still
// unprocessed after the retry are logged and accepted as lost; durability
// of a full batch is not guaranteed here.
func (r *Repo) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	var unprocessed []types.WriteRequest
	for i := 0; i < len(requests); i += batchMax {
		end := i + batchMax
		if end > len(requests) {
			end = len(requests)
		}
		out, err := r.db.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.table: requests[i:end]},
		})
		if err != nil {
			r.log.Error("batch write failed", zap.Error(err))
			return err
		}
		unprocessed = append(unprocessed, out.UnprocessedItems[r.table]...)
	}

	if len(unprocessed) == 0 {
		return nil
	}

	time.Sleep(r.retryDelay)
	var remaining []types.WriteRequest
	for i := 0; i < len(unprocessed); i += batchMax {
		end := i + batchMax
		if end > len(unprocessed) {
			end = len(unprocessed)
		}
		out, err := r.db.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.table: unprocessed[i:end]},
		})
		if err != nil {
			r.log.Error("batch write retry failed", zap.Error(err))
			return err
		}
		remaining = append(remaining, out.UnprocessedItems[r.table]...)
	}
	if len(remaining) > 0 {
		r.log.Warn("batch write left unprocessed items after retry", zap.Int("count", len(remaining)))
	}
	return nil
}

// checkSlideIndex rejects indices outside the supported 0..999 range.
func checkSlideIndex(index int) error {
	if index < 0 || index > MaxSlideIndex {
		return fmt.Errorf("slide index %d out of range 0..%d", index, MaxSlideIndex)
	}
	return nil
}

// metadataKey builds the primary key of a presentation's metadata record.
func metadataKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: PresentationPK(id)},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}
