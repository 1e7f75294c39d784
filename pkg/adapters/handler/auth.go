package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookieName = "oauthstate"
	userInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// MemberLookup finds the member a Google account maps to.
type MemberLookup interface {
	GetMemberByName(ctx context.Context, name string) (*domain.Member, error)
}

type AuthHandler struct {
	oauthConfig   *oauth2.Config
	members       MemberLookup
	jwtSecret     []byte
	frontendURL   string
	allowedEmails []string
	isProduction  bool
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewAuthHandler(cfg *config.Config, members MemberLookup) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		members:       members,
		jwtSecret:     []byte(cfg.JWTSecret),
		frontendURL:   cfg.FrontendURL,
		allowedEmails: cfg.AllowedEmails,
		isProduction:  cfg.IsProduction(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := h.generateStateOauthCookie(w)
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, h.oauthConfig.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie(stateCookieName)
	if err != nil {
		logging.Warn().Err(err).Msg("OAuth callback without state cookie")
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if r.FormValue("state") != oauthState.Value {
		logging.Warn().Msg("OAuth callback with mismatched state")
		writeError(w, r, fmt.Errorf("invalid oauth state: %w", domain.ErrUnauthorized))
		return
	}

	ctx := r.Context()
	token, err := h.oauthConfig.Exchange(ctx, r.FormValue("code"))
	if err != nil {
		logging.Error().Err(err).Msg("OAuth code exchange failed")
		writeError(w, r, fmt.Errorf("code exchange failed: %w", domain.ErrUnauthorized))
		return
	}

	googleUser, err := h.fetchUser(ctx, token)
	if err != nil {
		logging.Error().Err(err).Msg("Failed getting Google user info")
		writeError(w, r, err)
		return
	}

	if len(h.allowedEmails) > 0 && !slices.ContainsFunc(h.allowedEmails, func(e string) bool {
		return strings.EqualFold(e, googleUser.Email)
	}) {
		logging.Warn().Str("email", googleUser.Email).Msg("Email not in allowlist")
		writeError(w, r, fmt.Errorf("email not in allowlist: %w", domain.ErrForbidden))
		return
	}

	actor, err := h.resolveActor(ctx, googleUser.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.setSession(w, actor); err != nil {
		writeError(w, r, err)
		return
	}

	logging.Info().
		Str("email", googleUser.Email).
		Str("role", string(actor.Role)).
		Msg("Login successful")
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.frontendURL+"/login", http.StatusTemporaryRedirect)
}

// Me reports the request actor; role is null when anonymous.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())
	if actor.Role == domain.RoleAnonymous {
		writeJSON(w, http.StatusOK, map[string]any{"role": nil})
		return
	}
	writeJSON(w, http.StatusOK, actor)
}

// resolveActor maps an email to a member by name. Accounts with no member
// row are viewers.
func (h *AuthHandler) resolveActor(ctx context.Context, email string) (domain.Actor, error) {
	actor := domain.Actor{Subject: email, Role: domain.RoleViewer}

	member, err := h.members.GetMemberByName(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return actor, nil
	}
	if err != nil {
		return domain.Anonymous, err
	}

	actor.MemberID = member.ID
	actor.Role = member.Role()
	return actor, nil
}

func (h *AuthHandler) fetchUser(ctx context.Context, token *oauth2.Token) (*GoogleUser, error) {
	resp, err := h.oauthConfig.Client(ctx, token).Get(userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get user info: status %d: %w", resp.StatusCode, domain.ErrUnauthorized)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return &user, nil
}

func (h *AuthHandler) setSession(w http.ResponseWriter, actor domain.Actor) error {
	token, expiresAt, err := IssueToken(h.jwtSecret, actor, tokenTTL)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Expires:  expiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state, nil
}
