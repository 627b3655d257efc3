package email

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when no record exists for a Gmail ID.
var ErrNotFound = errors.New("email not found")

// Email is a single unread message as produced by the retrieval step.
// It is passed by value; classification returns a copy via WithLabel.
type Email struct {
	GmailID      string
	From         string
	Subject      string
	Body         string
	Date         string // RFC 2822, as found in the Date header
	Label        Label
	ClassifiedAt time.Time
}

func NewEmail(gmailID, from, subject, body, date string) Email {
	return Email{
		GmailID: gmailID,
		From:    from,
		Subject: subject,
		Body:    body,
		Date:    date,
	}
}

// WithLabel returns a copy of e carrying the given classification.
func (e Email) WithLabel(label Label, at time.Time) Email {
	e.Label = label
	e.ClassifiedAt = at
	return e
}

func (e Email) IsClassified() bool {
	return e.Label != LabelNone
}
