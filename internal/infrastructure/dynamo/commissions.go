package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/brokerage-api/internal/domain"
)

// CommissionRepo provides typed DynamoDB operations across the commissions,
// commission_verifications and commission_history tables. The three tables
// share one repo because every write to the latter two is transactionally
// coupled to the first.
type CommissionRepo struct {
	client             *dynamodb.Client
	commissionsTable   string
	verificationsTable string
	historyTable       string
}

func NewCommissionRepo(client *dynamodb.Client, commissionsTable, verificationsTable, historyTable string) *CommissionRepo {
	return &CommissionRepo{
		client:             client,
		commissionsTable:   commissionsTable,
		verificationsTable: verificationsTable,
		historyTable:       historyTable,
	}
}

func (r *CommissionRepo) Get(ctx context.Context, commissionID string) (*domain.CommissionStructure, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.commissionsTable),
		Key:       strKey("commission_id", commissionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("commission not found: %w", domain.ErrNotFound)
	}
	var c domain.CommissionStructure
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByListing returns the commission structure attached to a listing.
func (r *CommissionRepo) GetByListing(ctx context.Context, listingID string) (*domain.CommissionStructure, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.commissionsTable),
		IndexName:              aws.String("listing_id-index"),
		KeyConditionExpression: aws.String("listing_id = :lid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: listingID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("commission not found: %w", domain.ErrNotFound)
	}
	var c domain.CommissionStructure
	if err := attributevalue.UnmarshalMap(out.Items[0], &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateWithHistory inserts the commission and its "created" history entry in
// one TransactWriteItems call. Either both rows land or neither does.
func (r *CommissionRepo) CreateWithHistory(ctx context.Context, c *domain.CommissionStructure, h *domain.CommissionHistory) error {
	commissionItem, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal commission: %w", err)
	}
	historyItem, err := attributevalue.MarshalMap(h)
	if err != nil {
		return fmt.Errorf("marshal commission history: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.commissionsTable),
				Item:                commissionItem,
				ConditionExpression: aws.String("attribute_not_exists(commission_id)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(r.historyTable),
				Item:      historyItem,
			}},
		},
	})
	return err
}

// VerifyWithHistory inserts the verification record, stamps verified_at and
// verified_by on the commission, and appends the "verified" history entry —
// all in one TransactWriteItems call.
func (r *CommissionRepo) VerifyWithHistory(ctx context.Context, v *domain.CommissionVerification, h *domain.CommissionHistory, verifiedAt time.Time) error {
	verificationItem, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification: %w", err)
	}
	historyItem, err := attributevalue.MarshalMap(h)
	if err != nil {
		return fmt.Errorf("marshal commission history: %w", err)
	}
	stamp := verifiedAt.UTC().Format(time.RFC3339)
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName: aws.String(r.verificationsTable),
				Item:      verificationItem,
			}},
			{Update: &types.Update{
				TableName:        aws.String(r.commissionsTable),
				Key:              strKey("commission_id", v.CommissionID),
				UpdateExpression: aws.String("SET #va = :va, #vb = :vb, updated_at = :va"),
				ExpressionAttributeNames: map[string]string{
					"#va": fieldVerifiedAt,
					"#vb": fieldVerifiedBy,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":va": &types.AttributeValueMemberS{Value: stamp},
					":vb": &types.AttributeValueMemberS{Value: v.VerifiedBy},
				},
				ConditionExpression: aws.String("attribute_exists(commission_id)"),
			}},
			{Put: &types.Put{
				TableName: aws.String(r.historyTable),
				Item:      historyItem,
			}},
		},
	})
	return err
}

// ListVerifications returns all verification attempts for a commission.
func (r *CommissionRepo) ListVerifications(ctx context.Context, commissionID string) ([]domain.CommissionVerification, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.verificationsTable),
		IndexName:              aws.String("commission_id-index"),
		KeyConditionExpression: aws.String("commission_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: commissionID},
		},
	})
	if err != nil {
		return nil, err
	}
	var verifications []domain.CommissionVerification
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &verifications); err != nil {
		return nil, err
	}
	return verifications, nil
}

// ListHistory returns a commission's audit trail, oldest first.
func (r *CommissionRepo) ListHistory(ctx context.Context, commissionID string) ([]domain.CommissionHistory, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.historyTable),
		IndexName:              aws.String("commission_id-created_at-index"),
		KeyConditionExpression: aws.String("commission_id = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: commissionID},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	var history []domain.CommissionHistory
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &history); err != nil {
		return nil, err
	}
	return history, nil
}
