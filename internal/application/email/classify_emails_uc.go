package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gmailarchive/internal/domain/email"
	"gmailarchive/internal/logging"
)

// MaxBodyChars bounds the body sent to the classifier.
const MaxBodyChars = 5000

type ClassifyEmailsUseCase struct {
	classifier Classifier
	repo       Repository
	labeler    Labeler
	logger     *slog.Logger
	now        func() time.Time
}

// NewClassifyEmailsUseCase wires the classification pipeline. repo and
// labeler are optional; pass nil to disable caching or label write-back.
func NewClassifyEmailsUseCase(
	classifier Classifier,
	repo Repository,
	labeler Labeler,
	logger *slog.Logger,
) *ClassifyEmailsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyEmailsUseCase{
		classifier: classifier,
		repo:       repo,
		labeler:    labeler,
		logger:     logging.WithOperation(logger, "classify"),
		now:        time.Now,
	}
}

// Execute classifies each message in order and returns labelled copies.
// It never fails: a classifier error labels that message Unknown.
func (uc *ClassifyEmailsUseCase) Execute(ctx context.Context, emails []email.Email) []email.Email {
	out := make([]email.Email, 0, len(emails))
	for _, e := range emails {
		out = append(out, uc.classifyOne(ctx, e))
	}
	return out
}

func (uc *ClassifyEmailsUseCase) classifyOne(ctx context.Context, e email.Email) email.Email {
	if cached, ok := uc.lookup(ctx, e.GmailID); ok {
		uc.logger.Debug("classification cache hit", logging.MessageID(e.GmailID), logging.Label(cached.Label.String()))
		return e.WithLabel(cached.Label, cached.ClassifiedAt)
	}

	answer, err := uc.classifier.Classify(ctx, e.From, e.Subject, truncateRunes(e.Body, MaxBodyChars))
	if err != nil {
		uc.logger.Warn("classification failed", logging.MessageID(e.GmailID), logging.Err(err))
		return e.WithLabel(email.LabelUnknown, uc.now())
	}

	labelled := e.WithLabel(email.ParseLabel(answer), uc.now())
	uc.logger.Info("classified message", logging.MessageID(e.GmailID), logging.Label(labelled.Label.String()))

	uc.store(ctx, labelled)
	uc.apply(ctx, labelled)

	return labelled
}

func (uc *ClassifyEmailsUseCase) lookup(ctx context.Context, gmailID string) (email.Email, bool) {
	if uc.repo == nil || gmailID == "" {
		return email.Email{}, false
	}
	cached, err := uc.repo.Find(ctx, gmailID)
	if err != nil {
		if !errors.Is(err, email.ErrNotFound) {
			uc.logger.Warn("classification cache lookup failed", logging.MessageID(gmailID), logging.Err(err))
		}
		return email.Email{}, false
	}
	if !cached.Label.IsValid() || cached.Label == email.LabelUnknown {
		return email.Email{}, false
	}
	return cached, true
}

func (uc *ClassifyEmailsUseCase) store(ctx context.Context, e email.Email) {
	if uc.repo == nil {
		return
	}
	if err := uc.repo.Save(ctx, e); err != nil {
		uc.logger.Warn("failed to cache classification", logging.MessageID(e.GmailID), logging.Err(err))
	}
}

func (uc *ClassifyEmailsUseCase) apply(ctx context.Context, e email.Email) {
	if uc.labeler == nil {
		return
	}
	if err := uc.labeler.ApplyLabel(ctx, e.GmailID, e.Label); err != nil {
		uc.logger.Warn("failed to apply label", logging.MessageID(e.GmailID), logging.Err(err))
	}
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
