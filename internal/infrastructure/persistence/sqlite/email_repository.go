package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"gmailarchive/internal/domain/email"
)

const schema = `
CREATE TABLE IF NOT EXISTS classifications (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    gmail_id TEXT UNIQUE NOT NULL,
    from_addr TEXT,
    subject TEXT,
    body TEXT,
    date TEXT,
    label TEXT NOT NULL,
    classified_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_classifications_classified_at
    ON classifications (classified_at);
`

// EmailRepository caches classified messages keyed by Gmail message id.
type EmailRepository struct {
	db *sql.DB
}

func NewEmailRepository(dbPath string) (*EmailRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &EmailRepository{db: db}, nil
}

// Find returns the cached record for gmailID or email.ErrNotFound.
func (r *EmailRepository) Find(ctx context.Context, gmailID string) (email.Email, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT gmail_id, from_addr, subject, body, date, label, classified_at
		 FROM classifications WHERE gmail_id = ?`,
		gmailID,
	)

	e, err := scanEmail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return email.Email{}, email.ErrNotFound
	}
	if err != nil {
		return email.Email{}, fmt.Errorf("query email: %w", err)
	}
	return e, nil
}

// Save inserts or replaces the record for e.GmailID.
func (r *EmailRepository) Save(ctx context.Context, e email.Email) error {
	if e.GmailID == "" {
		return fmt.Errorf("save email: empty gmail id")
	}
	if !e.IsClassified() {
		return fmt.Errorf("save email %s: not classified", e.GmailID)
	}

	classifiedAt := e.ClassifiedAt
	if classifiedAt.IsZero() {
		classifiedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO classifications
         (gmail_id, from_addr, subject, body, date, label, classified_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.GmailID, e.From, e.Subject, e.Body, e.Date,
		e.Label.String(), classifiedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save email: %w", err)
	}

	return nil
}

// Recent returns up to limit records, most recently classified first.
func (r *EmailRepository) Recent(ctx context.Context, limit int) ([]email.Email, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT gmail_id, from_addr, subject, body, date, label, classified_at
		 FROM classifications ORDER BY classified_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var emails []email.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent: %w", err)
	}
	return emails, nil
}

func (r *EmailRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmail(s scanner) (email.Email, error) {
	var (
		e            email.Email
		from         sql.NullString
		subject      sql.NullString
		body         sql.NullString
		date         sql.NullString
		label        string
		classifiedAt int64
	)
	if err := s.Scan(&e.GmailID, &from, &subject, &body, &date, &label, &classifiedAt); err != nil {
		return email.Email{}, err
	}

	e.From = from.String
	e.Subject = subject.String
	e.Body = body.String
	e.Date = date.String
	e.Label = email.Label(label)
	e.ClassifiedAt = time.Unix(classifiedAt, 0)
	return e, nil
}
