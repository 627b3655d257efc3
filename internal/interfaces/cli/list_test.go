package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	llmoption "github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

type fakeServers struct {
	listCalls atomic.Int32
	chatCalls atomic.Int32
}

// startFakeAPIs serves the Gmail and OpenAI endpoints the list command
// calls and points the command at them.
func startFakeAPIs(t *testing.T) *fakeServers {
	t.Helper()
	fs := &fakeServers{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		fs.listCalls.Add(1)
		assert.Equal(t, "UNREAD", r.URL.Query().Get("labelIds"))
		assert.Equal(t, "Bearer cached", r.Header.Get("Authorization"))
		writeTestJSON(t, w, map[string]any{
			"messages": []map[string]string{{"id": "m1"}},
		})
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, map[string]any{
			"id": r.PathValue("id"),
			"payload": map[string]any{
				"mimeType": "text/html",
				"headers": []map[string]string{
					{"name": "From", "value": "Alice <alice@example.com>"},
					{"name": "Subject", "value": "Dinner on Friday"},
					{"name": "Date", "value": "Fri, 15 Mar 2024 09:30:00 +0000"},
				},
				"body": map[string]string{
					"data": base64.URLEncoding.EncodeToString([]byte("<p>Are you free <b>Friday</b>?</p>")),
				},
			},
		})
	})
	gmailSrv := httptest.NewServer(mux)
	t.Cleanup(gmailSrv.Close)

	openaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.chatCalls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		writeTestJSON(t, w, map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-3.5-turbo",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "Personal"},
			}},
		})
	}))
	t.Cleanup(openaiSrv.Close)

	previousGmail, previousLLM := gmailClientOptions, llmRequestOptions
	gmailClientOptions = []option.ClientOption{option.WithEndpoint(gmailSrv.URL + "/")}
	llmRequestOptions = []llmoption.RequestOption{
		llmoption.WithBaseURL(openaiSrv.URL + "/"),
		llmoption.WithMaxRetries(0),
	}
	t.Cleanup(func() {
		gmailClientOptions, llmRequestOptions = previousGmail, previousLLM
	})

	return fs
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

// writeAuthFiles stores OAuth client credentials and a still valid token so
// no interactive consent is needed.
func writeAuthFiles(t *testing.T, dir string) (string, string) {
	t.Helper()
	creds := filepath.Join(dir, "credentials.json")
	body := fmt.Sprintf(`{"installed":{
		"client_id":"client.apps.googleusercontent.com",
		"client_secret":"secret",
		"auth_uri":"https://accounts.google.com/o/oauth2/auth",
		"token_uri":%q,
		"redirect_uris":["http://localhost"]
	}}`, "http://127.0.0.1:1/token")
	require.NoError(t, os.WriteFile(creds, []byte(body), 0o600))

	token := filepath.Join(dir, "token.json")
	data, err := json.Marshal(&oauth2.Token{
		AccessToken:  "cached",
		TokenType:    "Bearer",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(token, data, 0o600))

	return creds, token
}

func TestListClassifiesAndRendersUnread(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	fs := startFakeAPIs(t)
	dir := t.TempDir()
	creds, token := writeAuthFiles(t, dir)

	code, out, errOut := execute(t,
		"-c", creds,
		"-t", token,
		"--db", filepath.Join(dir, "cache.db"),
		"-m", "5",
	)

	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Successfully authenticated with Gmail!")
	assert.Contains(t, out, "Classifying 1 emails using OpenAI!")
	assert.Contains(t, out, "Successfully classified 1 emails!")
	assert.Contains(t, out, "Unread Gmail Messages")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Dinner on Friday")
	assert.Contains(t, out, "Are you free Friday?")
	assert.Contains(t, out, "Personal")
	assert.Contains(t, out, "Found 1 unread email(s)")
	assert.Equal(t, int32(1), fs.listCalls.Load())
	assert.Equal(t, int32(1), fs.chatCalls.Load())
}

func TestListCachedRunSkipsClassifier(t *testing.T) {
	isolateEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")
	fs := startFakeAPIs(t)
	dir := t.TempDir()
	creds, token := writeAuthFiles(t, dir)
	args := []string{"-c", creds, "-t", token, "--db", filepath.Join(dir, "cache.db")}

	code, _, errOut := execute(t, args...)
	require.Equal(t, 0, code, errOut)
	code, out, errOut := execute(t, args...)
	require.Equal(t, 0, code, errOut)

	assert.Contains(t, out, "Personal")
	assert.Equal(t, int32(1), fs.chatCalls.Load())
}

func TestListFailsWithoutAPIKeyBeforeFetching(t *testing.T) {
	isolateEnv(t)
	fs := startFakeAPIs(t)
	dir := t.TempDir()
	creds, token := writeAuthFiles(t, dir)

	code, out, errOut := execute(t,
		"-c", creds,
		"-t", token,
		"--no-cache",
	)

	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Successfully authenticated with Gmail!")
	assert.Contains(t, errOut, "OPENAI_API_KEY")
	assert.NotContains(t, out, "Unread Gmail Messages")
	assert.Equal(t, int32(0), fs.listCalls.Load())
	assert.Equal(t, int32(0), fs.chatCalls.Load())
}
