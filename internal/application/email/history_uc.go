package email

import (
	"context"
	"fmt"

	"gmailarchive/internal/domain/email"
)

// HistoryUseCase lists cached classifications, newest first.
type HistoryUseCase struct {
	history History
}

func NewHistoryUseCase(history History) *HistoryUseCase {
	return &HistoryUseCase{history: history}
}

func (uc *HistoryUseCase) Execute(ctx context.Context, limit int) ([]email.Email, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	emails, err := uc.history.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return emails, nil
}
