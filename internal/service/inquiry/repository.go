package inquiry

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"lumenhaus-backend/internal/database"
	"lumenhaus-backend/internal/model"
)

// Repository persists storefront inquiries. Each category lives in its own
// table; the repository resolves the table from the category on every call.
type Repository interface {
	Create(ctx context.Context, item model.InquiryItem) error
	Get(ctx context.Context, category model.InquiryCategory, inquiryID string) (model.InquiryItem, error)
	List(ctx context.Context, category model.InquiryCategory, status model.InquiryStatus) ([]model.InquiryItem, error)
	CountPending(ctx context.Context, category model.InquiryCategory) (int, error)
	MarkHandled(ctx context.Context, category model.InquiryCategory, inquiryID, handledBy, handledAt string) (model.InquiryItem, error)
}

type DynamoRepository struct {
	db *database.DynamoDBClient
}

func NewDynamoRepository(db *database.DynamoDBClient) *DynamoRepository {
	return &DynamoRepository{db: db}
}

func tableFor(category model.InquiryCategory) (string, error) {
	table, ok := model.InquiryTableFor(category)
	if !ok {
		return "", fmt.Errorf("unknown inquiry category %q", category)
	}
	return table, nil
}

func inquiryKey(inquiryID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"inquiryId": &types.AttributeValueMemberS{Value: inquiryID},
	}
}

func (r *DynamoRepository) Create(ctx context.Context, item model.InquiryItem) error {
	table, err := tableFor(item.Category)
	if err != nil {
		return err
	}
	return r.db.PutItem(ctx, table, item)
}

func (r *DynamoRepository) Get(ctx context.Context, category model.InquiryCategory, inquiryID string) (model.InquiryItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return model.InquiryItem{}, err
	}

	var item model.InquiryItem
	if err := r.db.GetItem(ctx, table, inquiryKey(inquiryID), &item); err != nil {
		return model.InquiryItem{}, err
	}
	return item, nil
}

func (r *DynamoRepository) List(ctx context.Context, category model.InquiryCategory, status model.InquiryStatus) ([]model.InquiryItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return nil, err
	}

	var raw []map[string]types.AttributeValue
	if status == "" {
		raw, err = r.db.ScanAll(ctx, table)
	} else {
		raw, err = r.db.ScanItems(ctx, table,
			"#status = :status",
			map[string]types.AttributeValue{
				":status": &types.AttributeValueMemberS{Value: string(status)},
			},
			map[string]string{"#status": "status"},
		)
	}
	if err != nil {
		return nil, err
	}

	items := make([]model.InquiryItem, 0, len(raw))
	for _, av := range raw {
		var item model.InquiryItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("unmarshal inquiry: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *DynamoRepository) CountPending(ctx context.Context, category model.InquiryCategory) (int, error) {
	items, err := r.List(ctx, category, model.InquiryStatusPending)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *DynamoRepository) MarkHandled(ctx context.Context, category model.InquiryCategory, inquiryID, handledBy, handledAt string) (model.InquiryItem, error) {
	table, err := tableFor(category)
	if err != nil {
		return model.InquiryItem{}, err
	}

	var updated model.InquiryItem
	err = r.db.UpdateItem(ctx, table, inquiryKey(inquiryID),
		"SET #status = :handled, handledAt = :at, handledBy = :by",
		map[string]types.AttributeValue{
			":handled": &types.AttributeValueMemberS{Value: string(model.InquiryStatusHandled)},
			":at":      &types.AttributeValueMemberS{Value: handledAt},
			":by":      &types.AttributeValueMemberS{Value: handledBy},
		},
		map[string]string{"#status": "status"},
		&updated,
	)
	if err != nil {
		return model.InquiryItem{}, err
	}
	return updated, nil
}

func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}
