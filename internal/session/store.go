// Package session owns authentication state. It restores the persisted
// login envelope at startup and is the only component that reads or writes
// that envelope.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/hr-console/internal/api"
	"github.com/nhle/hr-console/internal/credential"
	"github.com/nhle/hr-console/internal/eventbus"
	"github.com/nhle/hr-console/internal/model"
)

// storageKey is the single key holding the login envelope.
const storageKey = "session"

// loginTimeout bounds the credential exchange.
const loginTimeout = 30 * time.Second

// msgLoginRejected replaces the generic expired-session text when the
// login call itself is refused without a server message.
const msgLoginRejected = "Invalid email or password."

// AuthError indicates that a login attempt did not produce a session.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Session is the in-memory authentication state.
type Session struct {
	Token string
	User  map[string]interface{}
}

// Credentials are submitted by the login view.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Exchanger performs the remote login call and returns the raw response
// envelope.
type Exchanger interface {
	PostRaw(ctx context.Context, path string, body interface{}) ([]byte, error)
}

// LoginResultMsg is a tea.Msg sent when the login exchange completes.
type LoginResultMsg struct {
	Envelope []byte
	Err      error
}

// Store is the process-wide session store. It must only be mutated from
// the event loop.
type Store struct {
	storage   credential.Storage
	exchanger Exchanger
	bus       *eventbus.Bus
	logger    *zap.Logger
	session   Session
}

// New creates a Store. Call Bootstrap before reading state.
func New(storage credential.Storage, exchanger Exchanger, bus *eventbus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage:   storage,
		exchanger: exchanger,
		bus:       bus,
		logger:    logger.With(zap.String("module", "session")),
	}
}

// Bootstrap restores the session from storage. It never fails: a missing,
// unreadable or malformed envelope leaves the session unauthenticated.
func (s *Store) Bootstrap() {
	s.session = Session{}

	raw, err := s.storage.Get(storageKey)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			s.logger.Warn("reading persisted session failed", zap.Error(err))
		}
		return
	}

	token, path, ok := ExtractToken(raw)
	if !ok {
		s.logger.Info("persisted session has no token")
		return
	}

	s.session = Session{Token: token, User: extractUser(raw)}
	s.logger.Info("session restored", zap.String("token_path", path))
}

// Login returns a command that exchanges credentials for a login envelope.
// The result must be handed to ApplyLogin on the event loop.
func (s *Store) Login(creds Credentials) tea.Cmd {
	exchanger := s.exchanger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
		defer cancel()

		envelope, err := exchanger.PostRaw(ctx, "/login", creds)
		return LoginResultMsg{Envelope: envelope, Err: err}
	}
}

// ApplyLogin persists a successful envelope verbatim and updates the
// in-memory session.
func (s *Store) ApplyLogin(msg LoginResultMsg) (Session, error) {
	if msg.Err != nil {
		s.logger.Info("login rejected", zap.Error(msg.Err))
		return Session{}, &AuthError{Message: loginFailureMessage(msg.Err), Err: msg.Err}
	}

	token, _, ok := ExtractToken(msg.Envelope)
	if !ok {
		return Session{}, &AuthError{Message: "the server did not return a session token"}
	}

	if err := s.storage.Set(storageKey, msg.Envelope); err != nil {
		s.logger.Error("persisting session failed", zap.Error(err))
		return Session{}, fmt.Errorf("persisting session: %w", err)
	}

	s.session = Session{Token: token, User: extractUser(msg.Envelope)}
	s.logger.Info("logged in")
	return s.session, nil
}

func loginFailureMessage(err error) string {
	message := api.Message(err)
	if api.IsAuthError(err) && (message == "" || message == api.MsgAuth) {
		return msgLoginRejected
	}
	return message
}

// Logout clears the in-memory session and the persisted envelope, even if
// both are already empty.
func (s *Store) Logout() {
	s.session = Session{}
	if err := s.storage.Delete(storageKey); err != nil {
		s.logger.Warn("clearing persisted session failed", zap.Error(err))
	}
	s.logger.Info("logged out")
}

// IsAuthenticated reports whether a non-empty token is held.
func (s *Store) IsAuthenticated() bool {
	return s.session.Token != ""
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	return s.session.Token
}

// UserName returns a display name for the signed-in user.
func (s *Store) UserName() string {
	for _, key := range []string{"name", "email"} {
		if v, ok := s.session.User[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	if claims, ok := s.Claims(); ok && claims.Subject != "" {
		return claims.Subject
	}
	return ""
}

// Watch subscribes the store to slice transitions so that any request the
// server rejects as unauthenticated ends the session.
func (s *Store) Watch(bus *eventbus.Bus) error {
	return bus.OnTransition(func(t eventbus.Transition) {
		if t.To != model.StatusFailed || t.ErrorKind != string(api.KindAuth) {
			return
		}
		s.HandleAuthFailure(t.Message)
	})
}

// HandleAuthFailure drops the session and announces the failure.
func (s *Store) HandleAuthFailure(message string) {
	wasAuthenticated := s.IsAuthenticated()
	s.Logout()
	if message == "" {
		message = api.MsgAuth
	}
	s.logger.Warn("session rejected by server", zap.Bool("was_authenticated", wasAuthenticated))
	if s.bus != nil {
		s.bus.PublishAuthFailure(eventbus.AuthFailure{Message: message})
	}
}
