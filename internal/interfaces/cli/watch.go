package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"gmailarchive/internal/app"
	"gmailarchive/internal/domain/email"
	"gmailarchive/internal/infrastructure/pubsub"
	pubsubhandler "gmailarchive/internal/interfaces/pubsub"
	"gmailarchive/internal/interfaces/render"
	"gmailarchive/internal/interfaces/worker"
	"gmailarchive/internal/logging"
)

// jobDelay spaces out Gmail and OpenAI calls made by each worker.
const jobDelay = 200 * time.Millisecond

func newWatchCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Classify new unread mail as it arrives via Gmail push notifications",
		Long: `watch enables Gmail push notifications to a Google Cloud Pub/Sub topic and
listens on a subscription for changes. Every new unread message is classified
and printed as soon as it arrives. Stop with Ctrl+C.

Requires GOOGLE_CLOUD_PROJECT and SUBSCRIPTION_ID; the topic defaults to
"gmail-topic" (TOPIC_NAME).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), rt)
		},
	}
}

func runWatch(ctx context.Context, rt *runtime) error {
	if err := rt.cfg.ValidateWatch(); err != nil {
		return err
	}

	rt.msg.Banner(bannerTitle, bannerTagline)

	opts := rt.appOptions()
	mailbox, err := app.ConnectGmail(ctx, opts)
	if err != nil {
		rt.msg.Error("Authentication failed! Please check your credentials file.")
		rt.msg.Error(err.Error())
		return reportedError{err: fmt.Errorf("authenticate: %w", err)}
	}
	rt.msg.Success("Successfully authenticated with Gmail!")

	a, err := app.New(mailbox, mailbox, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	historyID, err := mailbox.EnableWatch(ctx, rt.cfg.TopicPath())
	if err != nil {
		return err
	}
	rt.logger.Info("gmail watch enabled", slog.String("topic", rt.cfg.TopicPath()), slog.Uint64("history_id", historyID))

	table := render.NewTable(rt.out, rt.logger)
	var renderMu sync.Mutex
	onResult := func(e email.Email) {
		renderMu.Lock()
		defer renderMu.Unlock()
		if err := table.RenderNew(e); err != nil {
			rt.logger.Warn("failed to render message", logging.MessageID(e.GmailID), logging.Err(err))
		}
	}

	pool := worker.NewPool(rt.cfg.NumWorkers, jobDelay, a.ClassifyMessage, onResult, rt.logger)
	pool.Start(ctx)
	defer pool.Shutdown()

	subscriber, err := pubsub.NewSubscriber(ctx, rt.cfg.GoogleCloudProject, rt.cfg.SubscriptionID, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			rt.logger.Warn("failed to close subscriber", logging.Err(err))
		}
	}()

	handler := pubsubhandler.NewHandler(pool, mailbox, historyID, rt.logger)

	rt.msg.Info("Watching for new mail. Press Ctrl+C to stop.")

	err = subscriber.Listen(ctx, func(ctx context.Context, n pubsub.Notification) {
		handler.HandleNotification(ctx, n.HistoryID)
	})
	if err != nil && ctx.Err() == nil {
		return err
	}

	rt.msg.Info("Shutting down gracefully...")
	return nil
}
