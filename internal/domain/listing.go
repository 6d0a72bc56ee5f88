package domain

import "time"

// Listing statuses and transaction types.
const (
	ListingStatusActive    = "active"
	ListingStatusPending   = "pending"
	ListingStatusSold      = "sold"
	ListingStatusWithdrawn = "withdrawn"

	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

type Listing struct {
	ListingID   string     `json:"id" dynamodbav:"listing_id"`
	OwnerID     string     `json:"owner_id" dynamodbav:"owner_id"`
	Title       string     `json:"title" dynamodbav:"title"`
	Description string     `json:"description" dynamodbav:"description"`
	Address     string     `json:"address" dynamodbav:"address"`
	City        string     `json:"city" dynamodbav:"city"`
	State       string     `json:"state" dynamodbav:"state"`
	Zip         string     `json:"zip" dynamodbav:"zip"`
	Lat         *float64   `json:"lat,omitempty" dynamodbav:"lat"`
	Lng         *float64   `json:"lng,omitempty" dynamodbav:"lng"`
	Price       float64    `json:"price" dynamodbav:"price"`
	Type        string     `json:"type" dynamodbav:"type"`
	Bedrooms    int        `json:"bedrooms" dynamodbav:"bedrooms"`
	Bathrooms   int        `json:"bathrooms" dynamodbav:"bathrooms"`
	AreaSqft    int        `json:"area_sqft" dynamodbav:"area_sqft"`
	Status      string     `json:"status" dynamodbav:"status"`
	Enable      int        `json:"enable" dynamodbav:"enable"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time  `json:"updated" dynamodbav:"updated_at"`

	Images []ListingImage `json:"images,omitempty" dynamodbav:"-"`
}

// ListingImage is one photo attached to a listing. Position is the 0-based
// display order; reordering rewrites positions for the whole listing.
type ListingImage struct {
	ImageID   string    `json:"id" dynamodbav:"image_id"`
	ListingID string    `json:"listing_id" dynamodbav:"listing_id"`
	Key       string    `json:"-" dynamodbav:"s3_key"`
	URL       string    `json:"url" dynamodbav:"url"`
	Position  int       `json:"position" dynamodbav:"position"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateListingRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description"`
	Address     string  `json:"address" validate:"required"`
	City        string  `json:"city" validate:"required"`
	State       string  `json:"state" validate:"required"`
	Zip         string  `json:"zip"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Type        string  `json:"type" validate:"required,oneof=sale rent"`
	Bedrooms    int     `json:"bedrooms" validate:"gte=0"`
	Bathrooms   int     `json:"bathrooms" validate:"gte=0"`
	AreaSqft    int     `json:"area_sqft" validate:"gte=0"`
}

type UpdateListingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Address     *string  `json:"address"`
	City        *string  `json:"city"`
	State       *string  `json:"state"`
	Zip         *string  `json:"zip"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	Type        *string  `json:"type" validate:"omitempty,oneof=sale rent"`
	Bedrooms    *int     `json:"bedrooms" validate:"omitempty,gte=0"`
	Bathrooms   *int     `json:"bathrooms" validate:"omitempty,gte=0"`
	AreaSqft    *int     `json:"area_sqft" validate:"omitempty,gte=0"`
	Status      *string  `json:"status" validate:"omitempty,oneof=active pending sold withdrawn"`
}

// ReorderImagesRequest carries the full set of image ids in their new
// display order. Partial lists are rejected by the listing service.
type ReorderImagesRequest struct {
	ImageIDs []string `json:"image_ids" validate:"required,min=1,dive,required"`
}

// ListingFilter narrows a browse query. Zero values mean "any".
type ListingFilter struct {
	City     string
	Type     string
	MinPrice float64
	MaxPrice float64
}
