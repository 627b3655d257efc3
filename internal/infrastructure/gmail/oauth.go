package gmail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"gmailarchive/internal/logging"
)

// ErrCredentialsNotFound is returned when the OAuth client credentials file
// does not exist.
var ErrCredentialsNotFound = errors.New("credentials file not found")

const consentTimeout = 5 * time.Minute

// AuthConfig locates the OAuth client credentials and the cached token.
type AuthConfig struct {
	CredentialsFile string
	TokenFile       string
	Scopes          []string
	// Out receives the consent URL when interactive authorization is needed.
	Out    io.Writer
	Logger *slog.Logger
	// ServiceOptions are appended when building the Gmail service.
	ServiceOptions []option.ClientOption
}

// Authenticate returns a Gmail service authorized with a cached, refreshed or
// freshly consented token. Tokens are written back to cfg.TokenFile.
func Authenticate(ctx context.Context, cfg AuthConfig) (*gmail.Service, error) {
	ts, err := TokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, cfg.ServiceOptions...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return srv, nil
}

// TokenSource resolves a valid token and returns a source that persists
// every refreshed token to cfg.TokenFile.
func TokenSource(ctx context.Context, cfg AuthConfig) (oauth2.TokenSource, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithOperation(logger, "gmail.auth")

	config, err := loadConfig(cfg.CredentialsFile, cfg.Scopes)
	if err != nil {
		return nil, err
	}

	tok, err := loadToken(cfg.TokenFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("ignoring unreadable token file", slog.String("path", cfg.TokenFile), logging.Err(err))
	}

	if tok != nil && !tok.Valid() {
		tok = refresh(ctx, config, tok, logger)
	}

	if tok == nil {
		out := cfg.Out
		if out == nil {
			out = os.Stderr
		}
		tok, err = consent(ctx, config, out)
		if err != nil {
			return nil, err
		}
	}

	if err := saveToken(cfg.TokenFile, tok); err != nil {
		logger.Warn("failed to save token", slog.String("path", cfg.TokenFile), logging.Err(err))
	}

	return &savingTokenSource{
		base:       oauth2.ReuseTokenSource(tok, config.TokenSource(ctx, tok)),
		path:       cfg.TokenFile,
		logger:     logger,
		lastAccess: tok.AccessToken,
	}, nil
}

func loadConfig(path string, scopes []string) (*oauth2.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s\n"+
				"Download an OAuth client ID (Desktop app) from the Google Cloud Console "+
				"and save it as %s", ErrCredentialsNotFound, path, path)
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return config, nil
}

// refresh exchanges the refresh token for a new access token. It returns nil
// when the token cannot be refreshed, so the caller falls back to consent.
func refresh(ctx context.Context, config *oauth2.Config, tok *oauth2.Token, logger *slog.Logger) *oauth2.Token {
	if tok.RefreshToken == "" {
		logger.Info("cached token expired without refresh token")
		return nil
	}

	fresh, err := config.TokenSource(ctx, tok).Token()
	if err != nil {
		logger.Warn("token refresh failed, requesting new authorization", logging.Err(err))
		return nil
	}
	logger.Info("refreshed access token", slog.String("token", logging.SanitizeToken(fresh.AccessToken)))
	return fresh
}

type callbackResult struct {
	code string
	err  error
}

// consent runs the installed-app flow with a loopback redirect on a random
// local port and waits for the authorization code.
func consent(ctx context.Context, config *oauth2.Config, out io.Writer) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("start callback listener: %w", err)
	}

	state, err := randomState()
	if err != nil {
		ln.Close()
		return nil, err
	}

	loopback := *config
	loopback.RedirectURL = "http://" + ln.Addr().String() + "/"

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, callbackResult{err: fmt.Errorf("callback server: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := loopback.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Open the following URL in your browser to authorize gmail-archive:\n\n%s\n\n", authURL)

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for authorization: %w", ctx.Err())
	case <-time.After(consentTimeout):
		return nil, fmt.Errorf("authorization timed out after %s", consentTimeout)
	}
	if res.err != nil {
		return nil, fmt.Errorf("authorization failed: %w", res.err)
	}

	tok, err := loopback.Exchange(ctx, res.code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "authorization denied", http.StatusForbidden)
			deliver(results, callbackResult{err: fmt.Errorf("consent denied: %s", e)})
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete. You can close this window and return to the terminal.")
		deliver(results, callbackResult{code: code})
	})
}

// deliver keeps the first result; later callbacks are dropped.
func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tok oauth2.Token
	if err := json.NewDecoder(f).Decode(&tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return nil
}

// savingTokenSource writes the token to disk whenever the access token
// changes.
type savingTokenSource struct {
	base   oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu         sync.Mutex
	lastAccess string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.lastAccess {
		s.lastAccess = tok.AccessToken
		if err := saveToken(s.path, tok); err != nil {
			s.logger.Warn("failed to persist refreshed token", logging.Err(err))
		}
	}
	return tok, nil
}
