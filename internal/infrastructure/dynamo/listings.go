package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/brokerage-api/internal/domain"
)

// ListingRepo provides typed DynamoDB operations for the listings table.
type ListingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewListingRepo(client *dynamodb.Client, tableName string) *ListingRepo {
	return &ListingRepo{client: client, tableName: tableName}
}

func (r *ListingRepo) Put(ctx context.Context, l *domain.Listing) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ListingRepo) Get(ctx context.Context, listingID string) (*domain.Listing, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("listing_id", listingID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("listing not found: %w", domain.ErrNotFound)
	}
	var l domain.Listing
	if err := attributevalue.UnmarshalMap(out.Item, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListByOwner returns all enabled listings owned by userID, newest first.
func (r *ListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Listing, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-created_at-index"),
		KeyConditionExpression: aws.String("owner_id = :oid"),
		FilterExpression:       aws.String("enable = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: ownerID},
			":t":   &types.AttributeValueMemberN{Value: "1"},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var listings []domain.Listing
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// BrowsePage returns a page of enabled active listings matching the filter.
// When filter.City is set the city GSI narrows the read; otherwise a filtered
// scan pages through the table. cursor is a base64-encoded listing_id.
func (r *ListingRepo) BrowsePage(ctx context.Context, filter domain.ListingFilter, limit int32, cursor string) ([]domain.Listing, string, error) {
	filterExpr := "enable = :t AND #st = :active"
	names := map[string]string{"#st": "status"}
	values := map[string]types.AttributeValue{
		":t":      &types.AttributeValueMemberN{Value: "1"},
		":active": &types.AttributeValueMemberS{Value: domain.ListingStatusActive},
	}
	if filter.Type != "" {
		filterExpr += " AND #ty = :ty"
		names["#ty"] = "type"
		values[":ty"] = &types.AttributeValueMemberS{Value: filter.Type}
	}
	if filter.MinPrice > 0 {
		filterExpr += " AND price >= :minp"
		values[":minp"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(filter.MinPrice, 'f', -1, 64)}
	}
	if filter.MaxPrice > 0 {
		filterExpr += " AND price <= :maxp"
		values[":maxp"] = &types.AttributeValueMemberN{Value: strconv.FormatFloat(filter.MaxPrice, 'f', -1, 64)}
	}

	if filter.City != "" {
		values[":city"] = &types.AttributeValueMemberS{Value: filter.City}
		input := &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String("city-created_at-index"),
			KeyConditionExpression:    aws.String("city = :city"),
			FilterExpression:          aws.String(filterExpr),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
			ScanIndexForward:          aws.Bool(false),
			Limit:                     aws.Int32(limit),
		}
		if cursor != "" {
			startKey, err := decodeListingCursor(cursor)
			if err != nil {
				return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
			}
			input.ExclusiveStartKey = startKey
		}
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, "", err
		}
		return unmarshalListingPage(out.Items, out.LastEvaluatedKey)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(filterExpr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		Limit:                     aws.Int32(limit),
	}
	if cursor != "" {
		listingID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("listing_id", listingID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	return unmarshalListingPage(out.Items, out.LastEvaluatedKey)
}

func unmarshalListingPage(items []map[string]types.AttributeValue, lastKey map[string]types.AttributeValue) ([]domain.Listing, string, error) {
	var listings []domain.Listing
	if err := attributevalue.UnmarshalListOfMaps(items, &listings); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := lastKey["listing_id"].(*types.AttributeValueMemberS); ok {
		city, hasCity := lastKey["city"].(*types.AttributeValueMemberS)
		created, hasCreated := lastKey["created_at"].(*types.AttributeValueMemberS)
		if hasCity && hasCreated {
			nextCursor = encodeCursor(v.Value + "|" + city.Value + "|" + created.Value)
		} else {
			nextCursor = encodeCursor(v.Value)
		}
	}
	return listings, nextCursor, nil
}

// decodeListingCursor rebuilds the ExclusiveStartKey for the city GSI, which
// needs the index keys alongside the table key. The cursor packs them as
// listing_id|city|created_at.
func decodeListingCursor(cursor string) (map[string]types.AttributeValue, error) {
	raw, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) != 3 {
		// Fall back to a bare listing_id cursor.
		return strKey("listing_id", raw), nil
	}
	return map[string]types.AttributeValue{
		"listing_id": &types.AttributeValueMemberS{Value: parts[0]},
		"city":       &types.AttributeValueMemberS{Value: parts[1]},
		"created_at": &types.AttributeValueMemberS{Value: parts[2]},
	}, nil
}

func (r *ListingRepo) Update(ctx context.Context, listingID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("listing_id", listingID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *ListingRepo) SoftDelete(ctx context.Context, listingID string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	return r.Update(ctx, listingID, map[string]interface{}{fieldEnable: 0, fieldDeletedAt: now})
}
