package domain

import "time"

// Commission type, visibility, verification and history enums. These are
// closed sets enforced by the request validators.
const (
	CommissionTypePercentage = "percentage"
	CommissionTypeFlat       = "flat"

	VisibilityPrivate      = "private"
	VisibilityPublic       = "public"
	VisibilityVerifiedOnly = "verified_only"

	VerificationStatusPending  = "pending"
	VerificationStatusApproved = "approved"
	VerificationStatusRejected = "rejected"

	ChangeTypeCreated  = "created"
	ChangeTypeVerified = "verified"
)

// CommissionStructure holds the fee-sharing terms attached to a listing.
// Created on first commission submission; mutated only by verification events.
type CommissionStructure struct {
	CommissionID         string     `json:"id" dynamodbav:"commission_id"`
	ListingID            string     `json:"listing_id" dynamodbav:"listing_id"`
	Type                 string     `json:"type" dynamodbav:"type"`
	Amount               float64    `json:"amount" dynamodbav:"amount"`
	SplitPercentage      *float64   `json:"split_percentage,omitempty" dynamodbav:"split_percentage"`
	Terms                *string    `json:"terms,omitempty" dynamodbav:"terms"`
	VerificationRequired bool       `json:"verification_required" dynamodbav:"verification_required"`
	Visibility           string     `json:"visibility" dynamodbav:"visibility"`
	VerifiedAt           *time.Time `json:"verified_at,omitempty" dynamodbav:"verified_at"`
	VerifiedBy           *string    `json:"verified_by,omitempty" dynamodbav:"verified_by"`
	CreatedBy            string     `json:"created_by" dynamodbav:"created_by"`
	CreatedAt            time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt            time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// CommissionVerification records one attestation attempt against a
// commission structure. Write-once; later attempts append new records.
type CommissionVerification struct {
	VerificationID string                 `json:"id" dynamodbav:"verification_id"`
	CommissionID   string                 `json:"commission_id" dynamodbav:"commission_id"`
	VerifiedBy     string                 `json:"verified_by" dynamodbav:"verified_by"`
	Type           string                 `json:"verification_type" dynamodbav:"verification_type"`
	Data           map[string]interface{} `json:"verification_data,omitempty" dynamodbav:"verification_data"`
	ExpiresAt      *time.Time             `json:"expires_at,omitempty" dynamodbav:"expires_at"`
	Status         string                 `json:"status" dynamodbav:"status"`
	Notes          *string                `json:"notes,omitempty" dynamodbav:"notes"`
	CreatedAt      time.Time              `json:"created" dynamodbav:"created_at"`
}

// CommissionHistory is an append-only audit entry capturing a snapshot of
// the commission data after each change. Never updated or deleted.
type CommissionHistory struct {
	HistoryID    string                 `json:"id" dynamodbav:"history_id"`
	CommissionID string                 `json:"commission_id" dynamodbav:"commission_id"`
	ChangedBy    string                 `json:"changed_by" dynamodbav:"changed_by"`
	ChangeType   string                 `json:"change_type" dynamodbav:"change_type"`
	Data         map[string]interface{} `json:"data" dynamodbav:"data"`
	CreatedAt    time.Time              `json:"created" dynamodbav:"created_at"`
}

// CreateCommissionRequest carries a new commission payload. The percentage
// amount cap is a struct-level rule registered in internal/pkg/validate.
type CreateCommissionRequest struct {
	ListingID            string   `json:"listing_id" validate:"required"`
	Type                 string   `json:"type" validate:"required,oneof=percentage flat"`
	Amount               float64  `json:"amount" validate:"required,gt=0"`
	SplitPercentage      *float64 `json:"split_percentage" validate:"omitempty,gte=0,lte=100"`
	Terms                *string  `json:"terms"`
	VerificationRequired bool     `json:"verification_required"`
	Visibility           string   `json:"visibility" validate:"required,oneof=private public verified_only"`
}

// VerifyCommissionRequest carries one verification attempt. The commission id
// comes from the URL; the verifier identity from the session claims.
type VerifyCommissionRequest struct {
	VerificationType string                 `json:"verification_type" validate:"required,oneof=document broker_confirmation mls manual"`
	VerificationData map[string]interface{} `json:"verification_data"`
	ExpiresAt        *time.Time             `json:"expires_at"`
	Notes            *string                `json:"notes"`
}
