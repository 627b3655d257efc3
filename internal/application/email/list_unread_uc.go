package email

import (
	"context"
	"log/slog"

	"gmailarchive/internal/domain/email"
	"gmailarchive/internal/logging"
)

type ListUnreadUseCase struct {
	mailbox Mailbox
	logger  *slog.Logger
}

func NewListUnreadUseCase(mailbox Mailbox, logger *slog.Logger) *ListUnreadUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListUnreadUseCase{
		mailbox: mailbox,
		logger:  logging.WithOperation(logger, "list_unread"),
	}
}

// Execute lists up to limit unread messages and fetches each one in turn.
// A listing failure is logged and yields no messages; a message that cannot
// be fetched is logged and skipped.
func (uc *ListUnreadUseCase) Execute(ctx context.Context, limit int) []email.Email {
	ids, err := uc.mailbox.ListUnreadIDs(ctx, limit)
	if err != nil {
		uc.logger.Error("failed to list unread messages", logging.Err(err))
		return nil
	}

	emails := make([]email.Email, 0, len(ids))
	for _, id := range ids {
		e, err := uc.mailbox.GetMessage(ctx, id)
		if err != nil {
			uc.logger.Warn("failed to fetch message, skipping", logging.MessageID(id), logging.Err(err))
			continue
		}
		emails = append(emails, e)
	}

	uc.logger.Info("fetched unread messages", logging.Count(len(emails)))
	return emails
}
