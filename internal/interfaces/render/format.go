package render

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"gmailarchive/internal/domain/body"
	"gmailarchive/internal/domain/email"
)

const (
	maxSubjectChars = 80
	maxBodyChars    = 310
	ellipsis        = "..."

	placeholderSender  = "Unknown"
	placeholderSubject = "(No subject)"
	placeholderBody    = "(No body)"
	placeholderLabel   = "(N/A)"
)

// splitSender separates "Name <address>" into its parts. A sender without
// angle brackets is returned as the address.
func splitSender(sender string) (name, address string) {
	open := strings.Index(sender, "<")
	if open < 0 {
		return "", sender
	}
	end := strings.Index(sender[open:], ">")
	if end < 0 {
		return "", sender
	}
	name = strings.Trim(strings.TrimSpace(sender[:open]), `"`)
	address = strings.TrimSpace(sender[open+1 : open+end])
	return name, address
}

// truncate shortens s to max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	keep := max - len(ellipsis)
	i := 0
	for pos := range s {
		if i == keep {
			return s[:pos] + ellipsis
		}
		i++
	}
	return s
}

func formatSubject(subject string) string {
	if subject == "" {
		return placeholderSubject
	}
	return truncate(subject, maxSubjectChars)
}

func formatBody(raw string) string {
	if raw == "" {
		return placeholderBody
	}
	return truncate(body.ToPlainText(raw), maxBodyChars)
}

// formatDate renders an RFC 2822 date relative to now: a bare time for
// today, "Jan 2" within the current year, "01/02/06" otherwise. The date is
// shown in now's location.
func formatDate(raw string, now time.Time) (string, error) {
	t, err := mail.ParseDate(raw)
	if err != nil {
		return raw, fmt.Errorf("parse date %q: %w", raw, err)
	}
	t = t.In(now.Location())

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	switch {
	case ty == ny && tm == nm && td == nd:
		return t.Format("3:04 PM"), nil
	case ty == ny:
		return t.Format("Jan 2"), nil
	default:
		return t.Format("01/02/06"), nil
	}
}

func formatLabel(label email.Label) string {
	if label == email.LabelNone {
		return placeholderLabel
	}
	return label.String()
}
