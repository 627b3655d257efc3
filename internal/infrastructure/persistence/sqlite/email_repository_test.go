package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmailarchive/internal/domain/email"
)

func newTestRepository(t *testing.T) *EmailRepository {
	t.Helper()
	repo, err := NewEmailRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestEmailRepository_FindMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Find(context.Background(), "nope")
	assert.ErrorIs(t, err, email.ErrNotFound)
}

func TestEmailRepository_SaveAndFind(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	e := email.NewEmail("m1", "Alice <alice@example.com>", "Hello", "<p>body</p>", "Fri, 15 Mar 2024 09:30:00 +0000").
		WithLabel(email.LabelPersonal, at)
	require.NoError(t, repo.Save(ctx, e))

	got, err := repo.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, e.GmailID, got.GmailID)
	assert.Equal(t, e.From, got.From)
	assert.Equal(t, e.Subject, got.Subject)
	assert.Equal(t, e.Body, got.Body)
	assert.Equal(t, e.Date, got.Date)
	assert.Equal(t, email.LabelPersonal, got.Label)
	assert.Equal(t, at.Unix(), got.ClassifiedAt.Unix())
}

func TestEmailRepository_SaveReplaces(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, email.NewEmail("m1", "", "", "", "").WithLabel(email.LabelOther, at)))
	require.NoError(t, repo.Save(ctx, email.NewEmail("m1", "", "", "", "").WithLabel(email.LabelInformational, at)))

	got, err := repo.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, email.LabelInformational, got.Label)

	recent, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestEmailRepository_SaveRejectsUnclassified(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	assert.Error(t, repo.Save(ctx, email.NewEmail("m1", "", "", "", "")))
	assert.Error(t, repo.Save(ctx, email.NewEmail("", "", "", "", "").WithLabel(email.LabelOther, time.Now())))
}

func TestEmailRepository_Recent(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "middle", "new"} {
		e := email.NewEmail(id, "", id, "", "").WithLabel(email.LabelOther, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Save(ctx, e))
	}

	got, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].GmailID)
	assert.Equal(t, "middle", got[1].GmailID)
}

func TestEmailRepository_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	repo, err := NewEmailRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, email.NewEmail("m1", "", "", "", "").WithLabel(email.LabelPromotional, time.Now())))
	require.NoError(t, repo.Close())

	reopened, err := NewEmailRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Find(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, email.LabelPromotional, got.Label)
}
