package email

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSender delivers magic-link emails through Amazon SES.
type SESSender struct {
	client     *sesv2.Client
	sender     string
	senderName string
}

func NewSESSender(client *sesv2.Client, senderAddress, senderName string) *SESSender {
	return &SESSender{
		client:     client,
		sender:     senderAddress,
		senderName: senderName,
	}
}

func (s *SESSender) SendMagicLink(ctx context.Context, toEmail, linkURL, username string) error {
	greeting := "Hello"
	if username != "" {
		greeting = "Hello " + username
	}

	subject := "Your sign-in link"
	textBody := fmt.Sprintf("%s,\n\nClick the link below to sign in. It expires shortly and can be used once.\n\n%s\n\nIf you did not request this, you can ignore this email.\n", greeting, linkURL)
	htmlBody := fmt.Sprintf(`<p>%s,</p><p>Click the link below to sign in. It expires shortly and can be used once.</p><p><a href="%s">Sign in</a></p><p>If you did not request this, you can ignore this email.</p>`, greeting, linkURL)

	from := s.sender
	if s.senderName != "" {
		from = fmt.Sprintf("%s <%s>", s.senderName, s.sender)
	}

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(textBody)},
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("send email via ses: %w", err)
	}
	return nil
}
