package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brokerage-api/internal/domain"
	"github.com/brokerage-api/internal/infrastructure/smtp"
	"github.com/brokerage-api/internal/infrastructure/sns"
)

type settingsStore interface {
	Get(ctx context.Context, userID string) (*domain.Settings, error)
}

// AgentNotifier sends verification notices over email and SMS, honouring the
// agent's notification settings. Either channel may be nil.
type AgentNotifier struct {
	Mailer       smtp.Mailer
	SMSSender    sns.SMSSender
	SettingsRepo settingsStore
}

func (n *AgentNotifier) NotifyVerified(ctx context.Context, agent *domain.User, c *domain.CommissionStructure) {
	emailOn, smsOn := true, false
	if n.SettingsRepo != nil {
		if prefs, err := n.SettingsRepo.Get(ctx, agent.UserID); err == nil {
			emailOn = prefs.EmailNotifications
			smsOn = prefs.SMSNotifications
		}
	}

	if emailOn && n.Mailer != nil {
		subject := "Commission terms verified"
		body := fmt.Sprintf("Hi %s,\n\nThe commission terms on listing %s have been verified.\n", agent.FirstName, c.ListingID)
		if err := n.Mailer.SendEmail(agent.Email, subject, body); err != nil {
			slog.Warn("verification email failed", "user_id", agent.UserID, "err", err)
		}
	}

	if smsOn && n.SMSSender != nil && agent.Phone != nil {
		msg := fmt.Sprintf("Commission terms on listing %s verified.", c.ListingID)
		if err := n.SMSSender.SendSMS(ctx, *agent.Phone, msg); err != nil {
			slog.Warn("verification SMS failed", "user_id", agent.UserID, "err", err)
		}
	}
}
