package service

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/villa-web/internal/apiclient"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/store"
)

const (
	MsgLoginFailed      = "Login failed"
	MsgSignupFailed     = "Signup failed"
	MsgGoogleFailed     = "Google sign-in failed"
	MsgGoogleCancelled  = "Google authentication was cancelled."
	MsgRoleUpdateFailed = "Failed to update role"
)

const googleAuthEndpoint = "https://accounts.google.com/o/oauth2/v2/auth"

// GoogleOAuth holds the client registration used to build the consent URL.
type GoogleOAuth struct {
	ClientID    string
	RedirectURI string
}

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Signup is the registration form.
type Signup struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
}

type authResponse struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// AuthService drives the session partition.
type AuthService struct {
	api    *apiclient.Client
	google GoogleOAuth
	log    logrus.FieldLogger

	// LogoutTimeout bounds the unawaited server logout.
	LogoutTimeout time.Duration

	inflight sync.WaitGroup
}

func NewAuthService(api *apiclient.Client, google GoogleOAuth, log logrus.FieldLogger) *AuthService {
	return &AuthService{api: api, google: google, log: log, LogoutTimeout: 10 * time.Second}
}

// Login signs in with email and password.
func (s *AuthService) Login(ctx context.Context, st *store.Store, in Credentials) (model.User, error) {
	return s.authenticate(ctx, st, "/login", in, MsgLoginFailed)
}

// Signup registers and signs in.
func (s *AuthService) Signup(ctx context.Context, st *store.Store, in Signup) (model.User, error) {
	return s.authenticate(ctx, st, "/signup", in, MsgSignupFailed)
}

// LoginWithGoogle exchanges the OAuth authorization code with the backend.
func (s *AuthService) LoginWithGoogle(ctx context.Context, st *store.Store, code string) (model.User, error) {
	if code == "" {
		st.Dispatch(store.AuthFailed{Err: MsgGoogleFailed})
		return model.User{}, invalid(MsgGoogleFailed)
	}
	return s.authenticate(ctx, st, "/google", map[string]string{"token": code}, MsgGoogleFailed)
}

// CancelGoogle records a consent screen the user backed out of.
func (s *AuthService) CancelGoogle(st *store.Store) {
	st.Dispatch(store.AuthFailed{Err: MsgGoogleCancelled})
	st.Toast("error", MsgGoogleCancelled)
}

func (s *AuthService) authenticate(ctx context.Context, st *store.Store, path string, body any, fallback string) (model.User, error) {
	st.Dispatch(store.AuthStarted{})
	var resp authResponse
	if err := client(s.api, st).Do(ctx, http.MethodPost, path, body, &resp); err != nil {
		e := fail(err, fallback)
		st.Dispatch(store.AuthFailed{Err: e.Message})
		s.log.WithError(err).WithField("path", path).Warn("auth: request failed")
		return model.User{}, e
	}
	if resp.User.ID == "" {
		e := &Error{Status: http.StatusBadGateway, Message: fallback}
		st.Dispatch(store.AuthFailed{Err: e.Message})
		return model.User{}, e
	}
	st.Dispatch(store.AuthSucceeded{User: resp.User, Token: resp.Token})
	s.log.WithFields(logrus.Fields{"path": path, "user": resp.User.ID}).Info("auth: signed in")
	return resp.User, nil
}

// UpdateRole completes onboarding.  Both choices are stored on the backend
// so the session never returns to the no-role phase.
func (s *AuthService) UpdateRole(ctx context.Context, st *store.Store, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, invalid("userType must be user or host")
	}
	if st.State().Auth.Phase() == store.PhaseUnauthenticated {
		return model.User{}, &Error{Status: http.StatusUnauthorized, Message: "Not authenticated"}
	}
	st.Dispatch(store.RoleUpdateStarted{})
	var resp struct {
		User model.User `json:"user"`
	}
	err := client(s.api, st).Do(ctx, http.MethodPatch, "/users/update-role",
		map[string]string{"userType": role.String()}, &resp)
	if err != nil {
		e := fail(err, MsgRoleUpdateFailed)
		st.Dispatch(store.RoleUpdateFailed{Err: e.Message})
		s.log.WithError(err).Warn("auth: role update failed")
		return model.User{}, e
	}
	// some backend versions answer without echoing the new role
	if !resp.User.Role.Valid() {
		resp.User.Role = role
	}
	if resp.User.ID == "" {
		if cur := st.State().Auth.User; cur != nil {
			u := *cur
			u.Role = resp.User.Role
			resp.User = u
		}
	}
	st.Dispatch(store.RoleUpdated{User: resp.User})
	return resp.User, nil
}

// Logout clears the session's auth and cart partitions at once and then
// tells the backend, without waiting.  The server call reuses the cookies
// held before the reset and runs on a context detached from the request;
// its failure is only logged.
func (s *AuthService) Logout(ctx context.Context, st *store.Store) {
	cookies := st.State().Auth.Cookies
	st.Dispatch(store.LoggedOut{})

	api := s.api.WithJar(store.StaticJar(cookies))
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.LogoutTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := api.Do(bg, http.MethodPost, "/logout", struct{}{}, nil); err != nil {
			s.log.WithError(err).Warn("auth: server logout failed")
			return
		}
		s.log.Debug("auth: server logout ok")
	}()
}

// Wait blocks until every unawaited logout call has finished.
func (s *AuthService) Wait() { s.inflight.Wait() }

// GoogleAuthURL returns the consent screen URL the browser is sent to.
func (s *AuthService) GoogleAuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", s.google.ClientID)
	q.Set("redirect_uri", s.google.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	if state != "" {
		q.Set("state", state)
	}
	return googleAuthEndpoint + "?" + q.Encode()
}
