package render

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"gmailarchive/internal/domain/email"
	"gmailarchive/internal/logging"
)

const (
	UnreadTitle  = "📧 Unread Gmail Messages"
	HistoryTitle = "🗂 Classified Gmail Messages"
	NewTitle     = "📬 New Gmail Message"

	emptyUnread  = "No unread emails found! 📭"
	emptyHistory = "No classified emails cached yet! 📭"
)

var (
	headers      = []string{"From", "Subject", "Body", "Date", "Type"}
	columnWidths = []int{30, 30, 85, 11, 22}
)

// Table renders email records as a bordered terminal table.
type Table struct {
	w      io.Writer
	styles styles
	logger *slog.Logger
	now    func() time.Time
}

func NewTable(w io.Writer, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		w:      w,
		styles: newStyles(lipgloss.NewRenderer(w)),
		logger: logging.WithOperation(logger, "render"),
		now:    time.Now,
	}
}

// Render prints the unread messages followed by a summary line. "Found" is
// used when fewer than maxResults messages came back, "Showing" otherwise.
func (t *Table) Render(emails []email.Email, maxResults int) error {
	if len(emails) == 0 {
		return t.panel(emptyUnread)
	}

	verb := "Showing"
	if len(emails) < maxResults {
		verb = "Found"
	}
	return t.write(UnreadTitle, emails, fmt.Sprintf("%s %d unread email(s)", verb, len(emails)))
}

// RenderHistory prints cached classifications.
func (t *Table) RenderHistory(emails []email.Email) error {
	if len(emails) == 0 {
		return t.panel(emptyHistory)
	}
	return t.write(HistoryTitle, emails, fmt.Sprintf("Showing %d classified email(s)", len(emails)))
}

// RenderNew prints a single message classified by the watch command.
func (t *Table) RenderNew(e email.Email) error {
	return t.write(NewTitle, []email.Email{e}, "")
}

func (t *Table) panel(msg string) error {
	_, err := fmt.Fprintln(t.w, t.styles.panel.Render(msg))
	return err
}

func (t *Table) write(title string, emails []email.Email, summary string) error {
	grid := t.build(emails).String()

	var b strings.Builder
	b.WriteString(lipgloss.PlaceHorizontal(lipgloss.Width(grid), lipgloss.Center, t.styles.title.Render(title)))
	b.WriteString("\n")
	b.WriteString(grid)
	b.WriteString("\n")
	if summary != "" {
		b.WriteString("\n")
		b.WriteString(t.styles.summary.Render(summary))
		b.WriteString("\n")
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *Table) build(emails []email.Email) *table.Table {
	now := t.now()

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.styles.border).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return t.styles.header.Width(columnWidths[col])
			}
			return t.styles.columns[col].Width(columnWidths[col]).Padding(0, 1)
		})

	for i, e := range emails {
		tbl.Row(t.cells(e, now)...)
		if i < len(emails)-1 {
			tbl.Row("", "", "", "", "")
		}
	}
	return tbl
}

func (t *Table) cells(e email.Email, now time.Time) []string {
	date, err := formatDate(e.Date, now)
	if err != nil {
		t.logger.Warn("failed to parse date", logging.MessageID(e.GmailID), logging.Err(err))
	}

	return []string{
		t.sender(e.From),
		t.subject(e.Subject),
		t.body(e.Body),
		date,
		t.label(e.Label),
	}
}

func (t *Table) sender(from string) string {
	if from == "" {
		return placeholderSender
	}
	name, address := splitSender(from)
	if name == "" {
		return address
	}
	return name + "\n" + t.styles.dim.Render(address)
}

func (t *Table) subject(s string) string {
	if s == "" {
		return t.styles.dim.Render(placeholderSubject)
	}
	return formatSubject(s)
}

func (t *Table) body(raw string) string {
	if raw == "" {
		return t.styles.dim.Render(placeholderBody)
	}
	return formatBody(raw)
}

func (t *Table) label(l email.Label) string {
	text := formatLabel(l)
	if l == email.LabelNone {
		return t.styles.dim.Render(text)
	}
	if style, ok := t.styles.labels[text]; ok {
		return style.Render(text)
	}
	return text
}
