package email

import (
	"context"
	"fmt"

	"gmailarchive/internal/domain/email"
)

// ClassifyMessageUseCase fetches and classifies a single message, as pushed
// by the watch command.
type ClassifyMessageUseCase struct {
	mailbox  Mailbox
	classify *ClassifyEmailsUseCase
}

func NewClassifyMessageUseCase(mailbox Mailbox, classify *ClassifyEmailsUseCase) *ClassifyMessageUseCase {
	return &ClassifyMessageUseCase{
		mailbox:  mailbox,
		classify: classify,
	}
}

func (uc *ClassifyMessageUseCase) Execute(ctx context.Context, gmailID string) (email.Email, error) {
	e, err := uc.mailbox.GetMessage(ctx, gmailID)
	if err != nil {
		return email.Email{}, fmt.Errorf("fetch message: %w", err)
	}
	return uc.classify.Execute(ctx, []email.Email{e})[0], nil
}
