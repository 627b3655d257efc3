package email

import (
	"context"

	"gmailarchive/internal/domain/email"
)

// Mailbox is the read side of the Gmail API.
type Mailbox interface {
	ListUnreadIDs(ctx context.Context, limit int) ([]string, error)
	GetMessage(ctx context.Context, messageID string) (email.Email, error)
}

// Classifier returns the free-text category answer for one message.
type Classifier interface {
	Classify(ctx context.Context, sender, subject, body string) (string, error)
}

// Repository caches classifications by Gmail message id. Find returns
// email.ErrNotFound on a miss.
type Repository interface {
	Find(ctx context.Context, gmailID string) (email.Email, error)
	Save(ctx context.Context, e email.Email) error
}

type History interface {
	Recent(ctx context.Context, limit int) ([]email.Email, error)
}

// Labeler writes a classification back to the mailbox.
type Labeler interface {
	ApplyLabel(ctx context.Context, messageID string, label email.Label) error
}
