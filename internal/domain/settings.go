package domain

import "time"

// Settings is the per-user account settings row. One row per user, keyed by
// user_id; created lazily with defaults on first read.
type Settings struct {
	UserID                      string    `json:"user_id" dynamodbav:"user_id"`
	EmailNotifications          bool      `json:"email_notifications" dynamodbav:"email_notifications"`
	SMSNotifications            bool      `json:"sms_notifications" dynamodbav:"sms_notifications"`
	DefaultCommissionVisibility string    `json:"default_commission_visibility" dynamodbav:"default_commission_visibility"`
	Timezone                    string    `json:"timezone" dynamodbav:"timezone"`
	UpdatedAt                   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type UpdateSettingsRequest struct {
	EmailNotifications          *bool   `json:"email_notifications"`
	SMSNotifications            *bool   `json:"sms_notifications"`
	DefaultCommissionVisibility *string `json:"default_commission_visibility" validate:"omitempty,oneof=private public verified_only"`
	Timezone                    *string `json:"timezone"`
}
