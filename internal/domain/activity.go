package domain

import "time"

// Activity types recorded in the per-user activity feed.
const (
	ActivityLogin              = "login"
	ActivityListingCreated     = "listing_created"
	ActivityCommissionCreated  = "commission_created"
	ActivityCommissionVerified = "commission_verified"
)

// Activity is one append-only activity feed entry. Write-once.
type Activity struct {
	ActivityID string                 `json:"id" dynamodbav:"activity_id"`
	UserID     string                 `json:"user_id" dynamodbav:"user_id"`
	Type       string                 `json:"type" dynamodbav:"type"`
	Detail     map[string]interface{} `json:"detail,omitempty" dynamodbav:"detail"`
	CreatedAt  time.Time              `json:"created" dynamodbav:"created_at"`
}
