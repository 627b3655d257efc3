package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"gmailarchive/internal/domain/email"
	"gmailarchive/internal/logging"
)

const (
	me = "me"

	labelUnread = "UNREAD"
	labelDraft  = "DRAFT"
	labelInbox  = "INBOX"

	// maxPageSize is the largest maxResults the messages.list endpoint accepts.
	maxPageSize = 500

	// LabelPrefix namespaces the user labels written by --apply-labels.
	LabelPrefix = "Archive/"
)

// Client adapts the Gmail API to the mailbox ports.
type Client struct {
	srv    *gmail.Service
	logger *slog.Logger

	mu       sync.Mutex
	labelIDs map[string]string
}

func NewClient(srv *gmail.Service, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		srv:      srv,
		logger:   logging.WithOperation(logger, "gmail"),
		labelIDs: make(map[string]string),
	}
}

// ListUnreadIDs returns the ids of at most limit unread messages, newest
// first as ordered by the API. One page is fetched unless limit exceeds the
// page size.
func (c *Client) ListUnreadIDs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids := make([]string, 0, limit)
	pageToken := ""
	for {
		call := c.srv.Users.Messages.List(me).
			LabelIds(labelUnread).
			MaxResults(int64(min(limit-len(ids), maxPageSize))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list unread messages: %w", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
			if len(ids) == limit {
				return ids, nil
			}
		}

		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// GetMessage fetches a message in full format and extracts sender, subject,
// date and body.
func (c *Client) GetMessage(ctx context.Context, messageID string) (email.Email, error) {
	msg, err := c.srv.Users.Messages.Get(me, messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return email.Email{}, fmt.Errorf("get message %s: %w", messageID, err)
	}

	id := msg.Id
	if id == "" {
		id = messageID
	}

	return email.NewEmail(
		id,
		headerValue(msg.Payload, "From"),
		headerValue(msg.Payload, "Subject"),
		extractBody(msg.Payload),
		headerValue(msg.Payload, "Date"),
	), nil
}

// headerValue returns the value of the first header whose name matches
// exactly.
func headerValue(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, h := range payload.Headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// extractBody prefers the first text/plain part, then the first text/html
// part, searching nested multipart containers depth first. A single-part
// message of any other type falls back to its own body data.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if body, ok := findPart(payload, "text/plain"); ok {
		return body
	}
	if body, ok := findPart(payload, "text/html"); ok {
		return body
	}
	if payload.Body != nil && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	return ""
}

func findPart(part *gmail.MessagePart, mimeType string) (string, bool) {
	if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
		return decodeBody(part.Body.Data), true
	}
	for _, p := range part.Parts {
		if p == nil {
			continue
		}
		if body, ok := findPart(p, mimeType); ok {
			return body, true
		}
	}
	return "", false
}

// decodeBody decodes base64url data with or without padding. Invalid UTF-8
// sequences are dropped; undecodable data yields an empty body.
func decodeBody(data string) string {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return ""
		}
	}
	return strings.ToValidUTF8(string(b), "")
}

// LabelName is the Gmail user label a classification is written to.
func LabelName(label email.Label) string {
	return LabelPrefix + label.String()
}

// InitLabels loads the mailbox labels and creates the Archive/* labels that
// are missing.
func (c *Client) InitLabels(ctx context.Context) error {
	if err := c.loadLabels(ctx); err != nil {
		return err
	}

	conflicts := false
	for _, l := range email.RemoteLabels {
		name := LabelName(l)
		if c.cachedLabelID(name) != "" {
			continue
		}

		created, err := c.srv.Users.Labels.Create(me, &gmail.Label{
			Name:                  name,
			LabelListVisibility:   "labelShow",
			MessageListVisibility: "show",
		}).Context(ctx).Do()
		if err != nil {
			if isConflict(err) {
				c.logger.Info("label already exists", slog.String("name", name))
				conflicts = true
				continue
			}
			return fmt.Errorf("create label %q: %w", name, err)
		}

		c.mu.Lock()
		c.labelIDs[name] = created.Id
		c.mu.Unlock()
	}

	if conflicts {
		return c.loadLabels(ctx)
	}
	return nil
}

func (c *Client) loadLabels(ctx context.Context) error {
	list, err := c.srv.Users.Labels.List(me).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("list labels: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range list.Labels {
		c.labelIDs[l.Name] = l.Id
	}
	return nil
}

func (c *Client) cachedLabelID(name string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.labelIDs[name]
}

func isConflict(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusConflict {
		return true
	}
	return strings.Contains(err.Error(), "Label name exists or conflicts")
}

// ApplyLabel adds the Archive/<label> user label to a message. Labels are
// created on first use.
func (c *Client) ApplyLabel(ctx context.Context, messageID string, label email.Label) error {
	if !label.IsValid() || label == email.LabelUnknown {
		return fmt.Errorf("label %q cannot be applied", label)
	}

	name := LabelName(label)
	labelID := c.cachedLabelID(name)
	if labelID == "" {
		if err := c.InitLabels(ctx); err != nil {
			return err
		}
		labelID = c.cachedLabelID(name)
		if labelID == "" {
			return fmt.Errorf("label ID not found for %q", name)
		}
	}

	_, err := c.srv.Users.Messages.Modify(me, messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("modify message %s: %w", messageID, err)
	}
	return nil
}

// EnableWatch starts Gmail push notifications for the inbox to the given
// Pub/Sub topic and returns the mailbox history id at the time of the call.
func (c *Client) EnableWatch(ctx context.Context, topicName string) (uint64, error) {
	resp, err := c.srv.Users.Watch(me, &gmail.WatchRequest{
		TopicName: topicName,
		LabelIds:  []string{labelInbox},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("gmail watch: %w", err)
	}
	return resp.HistoryId, nil
}

// NewUnreadSince lists messages added after historyID that are unread and
// not drafts. Ids are returned once each, in history order.
func (c *Client) NewUnreadSince(ctx context.Context, historyID uint64) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	err := c.srv.Users.History.List(me).
		StartHistoryId(historyID).
		HistoryTypes("messageAdded").
		Pages(ctx, func(resp *gmail.ListHistoryResponse) error {
			for _, h := range resp.History {
				for _, added := range h.MessagesAdded {
					m := added.Message
					if m == nil || seen[m.Id] || hasLabel(m, labelDraft) || !hasLabel(m, labelUnread) {
						continue
					}
					seen[m.Id] = true
					ids = append(ids, m.Id)
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("gmail history list: %w", err)
	}
	return ids, nil
}

func hasLabel(msg *gmail.Message, labelID string) bool {
	for _, id := range msg.LabelIds {
		if id == labelID {
			return true
		}
	}
	return false
}
