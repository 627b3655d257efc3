package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	llmoption "github.com/openai/openai-go/v3/option"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"gmailarchive/internal/app"
	"gmailarchive/internal/infrastructure/config"
	"gmailarchive/internal/interfaces/render"
	"gmailarchive/internal/logging"
)

const (
	Version = "0.1.0"

	bannerTitle   = "Gmail Archive CLI"
	bannerTagline = "Access Gmail and suggests unread emails that can be archived."
)

type options struct {
	maxResults  int
	credentials string
	token       string
	dbPath      string
	noCache     bool
	applyLabels bool
	model       string
	logLevel    string
}

// Extra client options for the Gmail and OpenAI APIs, used to point the
// commands at other endpoints.
var (
	gmailClientOptions []option.ClientOption
	llmRequestOptions  []llmoption.RequestOption
)

// runtime carries what every command needs once flags and configuration
// have been resolved.
type runtime struct {
	opts   options
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer
	msg    *render.Messenger
}

func (rt *runtime) appOptions() app.Options {
	return app.Options{
		CredentialsFile: rt.opts.credentials,
		TokenFile:       rt.opts.token,
		DatabasePath:    rt.cfg.DatabasePath,
		APIKey:          rt.cfg.OpenAIAPIKey,
		Model:           rt.cfg.ModelName,
		NoCache:         rt.opts.noCache,
		ApplyLabels:     rt.opts.applyLabels,
		Out:             rt.errOut,
		Logger:          rt.logger,
		GmailOptions:    gmailClientOptions,
		LLMOptions:      llmRequestOptions,
	}
}

// NewRootCmd builds the command tree writing to the given streams.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	rt := &runtime{
		out:    out,
		errOut: errOut,
		msg:    render.NewMessenger(out, errOut),
	}

	cmd := &cobra.Command{
		Use:   "gmail-archive",
		Short: "Suggests unread Gmail messages that can be archived",
		Long: `gmail-archive is a CLI tool to access Gmail and suggest unread emails
that can be archived.

It fetches unread messages, classifies each one with an OpenAI model as
Informational, Promotional/Marketing, Personal or Other and prints them as a
table. Classifications are cached locally so re-runs stay cheap.

This tool requires Gmail API OAuth credentials (credentials.json) and an
OPENAI_API_KEY.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), rt)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetVersionTemplate(`{{printf "gmail-archive version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.IntVarP(&rt.opts.maxResults, "max-results", "m", 50, "Maximum number of emails to retrieve")
	flags.StringVarP(&rt.opts.credentials, "credentials", "c", "credentials.json", "Path to OAuth credentials file")
	flags.StringVarP(&rt.opts.token, "token", "t", "token.json", "Path to OAuth token file")
	flags.StringVar(&rt.opts.dbPath, "db", config.DefaultDatabasePath, "Path to the classification cache database (env DATABASE_PATH)")
	flags.BoolVar(&rt.opts.noCache, "no-cache", false, "Do not read or write the classification cache")
	flags.BoolVar(&rt.opts.applyLabels, "apply-labels", false, "Write classifications back to Gmail as Archive/* labels")
	flags.StringVar(&rt.opts.model, "model", config.DefaultModel, "OpenAI chat model (env MODEL_NAME)")
	flags.StringVar(&rt.opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (env LOG_LEVEL, default warn)")

	cmd.AddCommand(newHistoryCmd(rt))
	cmd.AddCommand(newWatchCmd(rt))

	return cmd
}

// setup loads configuration, applies explicit flags on top and installs the
// logger.
func (rt *runtime) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DatabasePath = rt.opts.dbPath
	}
	if flags.Changed("model") {
		cfg.ModelName = rt.opts.model
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = rt.opts.logLevel
	}

	logger, err := logging.Setup(rt.errOut, cfg.LogLevel)
	if err != nil {
		return err
	}

	if rt.opts.maxResults < 1 {
		return fmt.Errorf("--max-results must be at least 1, got %d", rt.opts.maxResults)
	}

	rt.cfg = cfg
	rt.logger = logger
	return nil
}

// Execute runs the CLI and exits with status 1 on any error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmd := NewRootCmd(out, errOut)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			render.NewMessenger(out, errOut).Error(err.Error())
		}
		return 1
	}
	return 0
}

// errReported marks errors whose message has already been shown.
var errReported = errors.New("error already reported")

type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() []error { return []error{e.err, errReported} }
