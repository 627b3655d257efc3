package pubsub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"google.golang.org/api/googleapi"

	"gmailarchive/internal/interfaces/worker"
	"gmailarchive/internal/logging"
)

type HistoryFetcher interface {
	NewUnreadSince(ctx context.Context, historyID uint64) ([]string, error)
}

type JobSubmitter interface {
	Submit(ctx context.Context, job worker.EmailJob) bool
}

// Handler turns Gmail notifications into classification jobs. It lists
// history from the last id it has seen, since a notification carries the
// mailbox's new history id rather than the starting point.
type Handler struct {
	pool    JobSubmitter
	fetcher HistoryFetcher
	logger  *slog.Logger

	mu   sync.Mutex
	last uint64
}

// NewHandler starts listing from startHistoryID, usually the id returned
// when the watch was enabled. Zero means "use the first notification".
func NewHandler(pool JobSubmitter, fetcher HistoryFetcher, startHistoryID uint64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pool:    pool,
		fetcher: fetcher,
		logger:  logging.WithOperation(logger, "notification"),
		last:    startHistoryID,
	}
}

func (h *Handler) HandleNotification(ctx context.Context, historyID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := h.last
	if start == 0 {
		start = historyID
	}

	messageIDs, err := h.fetcher.NewUnreadSince(ctx, start)
	if err != nil {
		if isExpiredHistory(err) {
			// Gmail keeps history for a limited time. Changes before this
			// notification are lost; resume from it.
			h.logger.Warn("history id expired, resetting", slog.Uint64("history_id", start),
				slog.Uint64("reset_to", historyID), logging.Err(err))
			h.last = historyID
			return
		}
		h.logger.Warn("failed to fetch history", slog.Uint64("history_id", start), logging.Err(err))
		return
	}
	if historyID > h.last {
		h.last = historyID
	}

	if len(messageIDs) == 0 {
		h.logger.Debug("no new messages", slog.Uint64("history_id", historyID))
		return
	}

	h.logger.Info("new messages", logging.Count(len(messageIDs)), slog.Uint64("history_id", historyID))

	for _, id := range messageIDs {
		if !h.pool.Submit(ctx, worker.EmailJob{GmailID: id}) {
			return
		}
	}
}

func isExpiredHistory(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
