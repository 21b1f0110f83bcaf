package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meetapp/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendSubscriptionNotice tells the organizer that someone subscribed, using the "subscription" template.
func (s *emailService) SendSubscriptionNotice(ctx context.Context, n *domain.SubscriptionNotification) error {
	if n == nil || n.Organizer == nil || n.Subscriber == nil {
		return fmt.Errorf("subscription notification is incomplete")
	}
	data := &domain.SubscriptionEmailData{
		OrganizerName:   n.Organizer.Name,
		SubscriberName:  n.Subscriber.Name,
		SubscriberEmail: n.Subscriber.Email,
		MeetupTitle:     n.MeetupTitle,
		MeetupLocation:  n.MeetupLocation,
		MeetupStartTime: n.MeetupStartTime.UTC().Format(time.RFC1123),
	}
	subject, htmlBody, textBody, err := s.renderer.Render("subscription", data)
	if err != nil {
		return fmt.Errorf("failed to render subscription template: %w", err)
	}
	if err := s.mailer.Send(n.Organizer.Address(), subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send subscription email: %w", err)
	}
	s.logger.InfoContext(ctx, "subscription email sent", "to", n.Organizer.Email, "subscription_id", n.SubscriptionID)
	return nil
}
