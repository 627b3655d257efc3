package email

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithLabelReturnsCopy(t *testing.T) {
	original := NewEmail("m1", "Alice <alice@example.com>", "Hi", "body", "Tue, 7 Mar 2024 13:06:00 -0700")
	at := time.Date(2024, 3, 7, 20, 0, 0, 0, time.UTC)

	labeled := original.WithLabel(LabelPersonal, at)

	assert.Equal(t, LabelNone, original.Label)
	assert.False(t, original.IsClassified())
	assert.Equal(t, LabelPersonal, labeled.Label)
	assert.Equal(t, at, labeled.ClassifiedAt)
	assert.True(t, labeled.IsClassified())
	assert.Equal(t, original.GmailID, labeled.GmailID)
	assert.Equal(t, original.Body, labeled.Body)
}
