// Package notification delivers user-facing messages. The current sender
// writes to the application log; swapping in a real mail provider only
// means implementing Service elsewhere.
package notification

import (
	"context"
	"fmt"
	"log"

	"kobo/internal/models"
)

// Service defines the notification interface
type Service interface {
	SendVerificationEmail(ctx context.Context, user *models.User, token string) error
	SendTransferReceived(ctx context.Context, user *models.User, amount, senderAddress string) error
}

type logSender struct {
	baseURL string
}

// NewService creates a log-backed notification sender. baseURL is the
// public address used to build verification links.
func NewService(baseURL string) Service {
	return &logSender{baseURL: baseURL}
}

func (s *logSender) SendVerificationEmail(ctx context.Context, user *models.User, token string) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	link := fmt.Sprintf("%s/api/verify-email?token=%s", s.baseURL, token)
	log.Printf("[mail] to=%s subject=\"Verify your email\" link=%s", user.Email, link)
	return nil
}

func (s *logSender) SendTransferReceived(ctx context.Context, user *models.User, amount, senderAddress string) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	log.Printf("[mail] to=%s subject=\"You received %s NGN\" from=%s", user.Email, amount, senderAddress)
	return nil
}
