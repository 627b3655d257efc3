package email

import (
	"context"
	"errors"

	"gmailarchive/internal/domain/email"
)

type fakeMailbox struct {
	ids      []string
	listErr  error
	messages map[string]email.Email
	getErr   map[string]error
	gets     []string
}

func (f *fakeMailbox) ListUnreadIDs(_ context.Context, limit int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.ids) > limit {
		return f.ids[:limit], nil
	}
	return f.ids, nil
}

func (f *fakeMailbox) GetMessage(_ context.Context, id string) (email.Email, error) {
	f.gets = append(f.gets, id)
	if err := f.getErr[id]; err != nil {
		return email.Email{}, err
	}
	m, ok := f.messages[id]
	if !ok {
		return email.Email{}, errors.New("no such message")
	}
	return m, nil
}

type classifyCall struct {
	sender, subject, body string
}

type fakeClassifier struct {
	answers map[string]string
	errs    map[string]error
	calls   []classifyCall
}

func (f *fakeClassifier) Classify(_ context.Context, sender, subject, body string) (string, error) {
	f.calls = append(f.calls, classifyCall{sender: sender, subject: subject, body: body})
	if err := f.errs[subject]; err != nil {
		return "", err
	}
	return f.answers[subject], nil
}

type fakeRepository struct {
	stored  map[string]email.Email
	findErr error
	saveErr error
	saved   []email.Email
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{stored: map[string]email.Email{}}
}

func (f *fakeRepository) Find(_ context.Context, id string) (email.Email, error) {
	if f.findErr != nil {
		return email.Email{}, f.findErr
	}
	e, ok := f.stored[id]
	if !ok {
		return email.Email{}, email.ErrNotFound
	}
	return e, nil
}

func (f *fakeRepository) Save(_ context.Context, e email.Email) error {
	f.saved = append(f.saved, e)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored[e.GmailID] = e
	return nil
}

func (f *fakeRepository) Recent(_ context.Context, limit int) ([]email.Email, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if len(f.saved) > limit {
		return f.saved[:limit], nil
	}
	return f.saved, nil
}

type fakeLabeler struct {
	err     error
	applied map[string]email.Label
}

func (f *fakeLabeler) ApplyLabel(_ context.Context, id string, label email.Label) error {
	if f.applied == nil {
		f.applied = map[string]email.Label{}
	}
	if f.err != nil {
		return f.err
	}
	f.applied[id] = label
	return nil
}
