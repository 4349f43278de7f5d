package tools

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/driveagent/driveagent/pkg/contracts"
	"github.com/driveagent/driveagent/pkg/models"
)

// sendEmailTool delivers a message through the EmailSender capability.
func sendEmailTool(sender contracts.EmailSender) Tool {
	return Tool{
		Spec: models.ToolSpec{
			Name:        "sendEmail",
			Description: "Send an email. Use when the user asks to email something to an address.",
			Parameters: models.ObjectSchema{
				Properties: map[string]models.Property{
					"to":            {Type: "string", Description: "Recipient email address"},
					"subject":       {Type: "string", Description: "Email subject"},
					"message":       {Type: "string", Description: "Plain-text message body"},
					"recipientName": {Type: "string", Description: "Optional recipient name for the greeting"},
				},
				Required: []string{"to", "subject", "message"},
			},
		},
		Invoke: func(ctx context.Context, params map[string]any) (map[string]any, error) {
			to, err := requiredString(params, "to")
			if err != nil {
				return nil, err
			}
			subject, err := requiredString(params, "subject")
			if err != nil {
				return nil, err
			}
			message, err := requiredString(params, "message")
			if err != nil {
				return nil, err
			}
			recipientName := optionalString(params, "recipientName")

			if err := sender.Send(ctx, to, subject, htmlBody(message, recipientName)); err != nil {
				return nil, fmt.Errorf("send email: %w", err)
			}

			return map[string]any{
				"success": true,
				"message": fmt.Sprintf("Email sent to %s.", to),
				"sentEmail": map[string]any{
					"to":      to,
					"subject": subject,
					"body":    message,
				},
			}, nil
		},
	}
}

// htmlBody renders the plain-text message as simple HTML paragraphs with an
// optional greeting.
func htmlBody(message, recipientName string) string {
	var sb strings.Builder
	if recipientName != "" {
		sb.WriteString("<p>Hello " + html.EscapeString(recipientName) + ",</p>\n")
	}
	for _, para := range strings.Split(message, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sb.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(para), "\n", "<br>") + "</p>\n")
	}
	return sb.String()
}
