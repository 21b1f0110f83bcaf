package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// SubscriptionEmailData holds data for the email sent to an organizer when someone subscribes.
type SubscriptionEmailData struct {
	OrganizerName   string
	SubscriberName  string
	SubscriberEmail string
	MeetupTitle     string
	MeetupLocation  string
	MeetupStartTime string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendSubscriptionNotice(ctx context.Context, n *SubscriptionNotification) error
}
