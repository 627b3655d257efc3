package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmailarchive/internal/domain/email"
)

func newTestTable(buf *bytes.Buffer) *Table {
	tbl := NewTable(buf, discardLogger())
	tbl.now = func() time.Time { return testNow }
	return tbl
}

func sampleEmails() []email.Email {
	return []email.Email{
		email.NewEmail("1", "Alice Smith <alice@example.com>", "", "<p>Hello <b>World</b></p>", "Fri, 15 Mar 2024 13:06:00 +0000").
			WithLabel(email.LabelInformational, testNow),
		email.NewEmail("2", "", "Lunch", "", "someday"),
	}
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestTable(&buf).Render(sampleEmails(), 50))

	out := buf.String()
	assert.Contains(t, out, UnreadTitle)
	for _, h := range headers {
		assert.Contains(t, out, h)
	}
	assert.Contains(t, out, "Alice Smith")
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "(No subject)")
	assert.Contains(t, out, "Hello World")
	assert.Contains(t, out, "1:06 PM")
	assert.Contains(t, out, "Informational")
	assert.Contains(t, out, "Unknown")
	assert.Contains(t, out, "(No body)")
	assert.Contains(t, out, "someday")
	assert.Contains(t, out, "(N/A)")
	assert.Contains(t, out, "Found 2 unread email(s)")
	assert.NotContains(t, out, "<p>")
}

func TestTable_RenderSummaryAtLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestTable(&buf).Render(sampleEmails(), 2))
	assert.Contains(t, buf.String(), "Showing 2 unread email(s)")
}

func TestTable_RenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestTable(&buf).Render(nil, 50))

	out := buf.String()
	assert.Contains(t, out, "No unread emails found! 📭")
	assert.NotContains(t, out, UnreadTitle)
}

func TestTable_SpacerRowsBetweenRecords(t *testing.T) {
	one := sampleEmails()[:1]
	var single, double bytes.Buffer
	require.NoError(t, newTestTable(&single).Render(one, 50))
	require.NoError(t, newTestTable(&double).Render(append(one, one[0]), 50))

	singleLines := strings.Count(single.String(), "\n")
	doubleLines := strings.Count(double.String(), "\n")
	rowLines := 2 // sender name and address

	assert.Equal(t, singleLines+rowLines+1, doubleLines)
}

func TestTable_RenderHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestTable(&buf).RenderHistory(sampleEmails()[:1]))
	assert.Contains(t, buf.String(), HistoryTitle)
	assert.Contains(t, buf.String(), "Showing 1 classified email(s)")

	buf.Reset()
	require.NoError(t, newTestTable(&buf).RenderHistory(nil))
	assert.Contains(t, buf.String(), "No classified emails cached yet!")
}

func TestTable_RenderNew(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestTable(&buf).RenderNew(sampleEmails()[0]))
	assert.Contains(t, buf.String(), NewTitle)
	assert.NotContains(t, buf.String(), "email(s)")
}
