package dynamo

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/brokerage-api/internal/domain"
)

// ListingImageRepo provides typed DynamoDB operations for the listing_images table.
type ListingImageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewListingImageRepo(client *dynamodb.Client, tableName string) *ListingImageRepo {
	return &ListingImageRepo{client: client, tableName: tableName}
}

func (r *ListingImageRepo) Put(ctx context.Context, img *domain.ListingImage) error {
	item, err := attributevalue.MarshalMap(img)
	if err != nil {
		return fmt.Errorf("marshal listing image: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ListingImageRepo) Get(ctx context.Context, imageID string) (*domain.ListingImage, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("image_id", imageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("listing image not found: %w", domain.ErrNotFound)
	}
	var img domain.ListingImage
	if err := attributevalue.UnmarshalMap(out.Item, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// ListByListing returns a listing's images ordered by position.
func (r *ListingImageRepo) ListByListing(ctx context.Context, listingID string) ([]domain.ListingImage, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("listing_id-index"),
		KeyConditionExpression: aws.String("listing_id = :lid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lid": &types.AttributeValueMemberS{Value: listingID},
		},
	})
	if err != nil {
		return nil, err
	}
	var images []domain.ListingImage
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &images); err != nil {
		return nil, err
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Position < images[j].Position })
	return images, nil
}

// SetPositions rewrites the position attribute for every image in one
// TransactWriteItems call, so a reorder is all-or-nothing per listing.
func (r *ListingImageRepo) SetPositions(ctx context.Context, positions map[string]int) error {
	if len(positions) == 0 {
		return fmt.Errorf("no positions to set: %w", domain.ErrBadRequest)
	}
	ids := make([]string, 0, len(positions))
	for id := range positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]types.TransactWriteItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, types.TransactWriteItem{
			Update: &types.Update{
				TableName:        aws.String(r.tableName),
				Key:              strKey("image_id", id),
				UpdateExpression: aws.String("SET #p = :p"),
				ExpressionAttributeNames: map[string]string{
					"#p": fieldPosition,
				},
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":p": &types.AttributeValueMemberN{Value: strconv.Itoa(positions[id])},
				},
				ConditionExpression: aws.String("attribute_exists(image_id)"),
			},
		})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return err
}

func (r *ListingImageRepo) Delete(ctx context.Context, imageID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("image_id", imageID),
	})
	return err
}
