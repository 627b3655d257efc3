// Package app wires the infrastructure adapters into the use cases shared by
// the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	llmoption "github.com/openai/openai-go/v3/option"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	appemail "gmailarchive/internal/application/email"
	"gmailarchive/internal/infrastructure/gmail"
	"gmailarchive/internal/infrastructure/llm"
	"gmailarchive/internal/infrastructure/persistence/sqlite"
	"gmailarchive/internal/logging"
)

type Options struct {
	CredentialsFile string
	TokenFile       string
	DatabasePath    string
	APIKey          string
	Model           string
	NoCache         bool
	ApplyLabels     bool

	// Out receives the OAuth consent URL.
	Out    io.Writer
	Logger *slog.Logger

	GmailOptions []option.ClientOption
	LLMOptions   []llmoption.RequestOption
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Scopes returns the Gmail OAuth scopes needed for the options. Writing
// labels needs gmail.modify; everything else is read-only.
func Scopes(applyLabels bool) []string {
	if applyLabels {
		return []string{gmailapi.GmailModifyScope}
	}
	return []string{gmailapi.GmailReadonlyScope}
}

// ConnectGmail authenticates and returns the mailbox adapter.
func ConnectGmail(ctx context.Context, opts Options) (*gmail.Client, error) {
	srv, err := gmail.Authenticate(ctx, gmail.AuthConfig{
		CredentialsFile: opts.CredentialsFile,
		TokenFile:       opts.TokenFile,
		Scopes:          Scopes(opts.ApplyLabels),
		Out:             opts.Out,
		Logger:          opts.logger(),
		ServiceOptions:  opts.GmailOptions,
	})
	if err != nil {
		return nil, err
	}
	return gmail.NewClient(srv, opts.logger()), nil
}

// App holds the use cases for one run.
type App struct {
	ListUnread      *appemail.ListUnreadUseCase
	Classify        *appemail.ClassifyEmailsUseCase
	ClassifyMessage *appemail.ClassifyMessageUseCase

	repo *sqlite.EmailRepository
}

// New builds the classifier and, unless disabled, the classification cache.
// A missing API key is an error; a cache that cannot be opened is logged and
// skipped.
func New(mailbox appemail.Mailbox, labeler appemail.Labeler, opts Options) (*App, error) {
	logger := opts.logger()

	classifier, err := llm.NewClient(opts.APIKey, opts.Model, opts.LLMOptions...)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	a := &App{}

	var repo appemail.Repository
	if !opts.NoCache {
		a.repo, err = sqlite.NewEmailRepository(opts.DatabasePath)
		if err != nil {
			logger.Warn("classification cache unavailable, continuing without it",
				logging.Operation("cache.open"), logging.Err(err))
		} else {
			repo = a.repo
		}
	}

	if !opts.ApplyLabels {
		labeler = nil
	}

	a.ListUnread = appemail.NewListUnreadUseCase(mailbox, logger)
	a.Classify = appemail.NewClassifyEmailsUseCase(classifier, repo, labeler, logger)
	a.ClassifyMessage = appemail.NewClassifyMessageUseCase(mailbox, a.Classify)
	return a, nil
}

// CacheEnabled reports whether classifications are being cached.
func (a *App) CacheEnabled() bool {
	return a.repo != nil
}

func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}

// OpenHistory opens the classification cache for the history command. The
// returned close function releases the database.
func OpenHistory(path string) (*appemail.HistoryUseCase, func() error, error) {
	if path == "" {
		return nil, nil, errors.New("database path is required")
	}
	repo, err := sqlite.NewEmailRepository(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open classification cache: %w", err)
	}
	return appemail.NewHistoryUseCase(repo), repo.Close, nil
}
