package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/logging"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/metrics"
)

const (
	authCookieName  = "auth_token"
	requestIDHeader = "X-Request-ID"
	tokenTTL        = 24 * time.Hour
)

type ctxKey int

const actorKey ctxKey = iota

// Claims carries the actor inside the auth token.
type Claims struct {
	jwt.RegisteredClaims
	MemberID int64       `json:"mid,omitempty"`
	Role     domain.Role `json:"role"`
}

// IssueToken signs a token for actor, valid for ttl.
func IssueToken(secret []byte, actor domain.Actor, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.Subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		MemberID: actor.MemberID,
		Role:     actor.Role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseToken verifies tokenString and returns the actor it names.
func ParseToken(secret []byte, tokenString string) (domain.Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return domain.Anonymous, fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
	}

	switch claims.Role {
	case domain.RoleViewer, domain.RoleEditor:
	default:
		return domain.Anonymous, fmt.Errorf("unknown role %q: %w", claims.Role, domain.ErrUnauthorized)
	}

	return domain.Actor{
		MemberID: claims.MemberID,
		Subject:  claims.Subject,
		Role:     claims.Role,
	}, nil
}

// ActorFrom returns the request actor, or Anonymous when none was attached.
func ActorFrom(ctx context.Context) domain.Actor {
	if actor, ok := ctx.Value(actorKey).(domain.Actor); ok {
		return actor
	}
	return domain.Anonymous
}

func withActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

type Middleware struct {
	jwtSecret []byte
	policy    *authz.Policy
}

func NewMiddleware(cfg *config.Config, policy *authz.Policy) *Middleware {
	return &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
		policy:    policy,
	}
}

// actor reads the token from the auth cookie or a bearer header. No token
// at all is the anonymous actor, not an error.
func (m *Middleware) actor(r *http.Request) (domain.Actor, error) {
	var tokenString string
	if cookie, err := r.Cookie(authCookieName); err == nil {
		tokenString = cookie.Value
	} else if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		tokenString = strings.TrimSpace(bearer)
	}

	if tokenString == "" {
		return domain.Anonymous, nil
	}
	return ParseToken(m.jwtSecret, tokenString)
}

// Authenticate attaches the request actor. A bad token fails the request
// with 401.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := m.actor(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

// Require guards next with capability c. Routes anonymous actors may use
// ignore a bad token instead of failing.
func (m *Middleware) Require(c authz.Capability, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := m.actor(r)
		if err != nil {
			if !m.policy.Can(domain.Anonymous, c) {
				writeError(w, r, err)
				return
			}
			actor = domain.Anonymous
		}

		if err := m.policy.Require(actor, c); err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r.WithContext(withActor(r.Context(), actor)))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags each request with an id and logs it once served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		// ServeMux sets Pattern on the request it was handed.
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(r.Method, route, rec.status)

		event := logging.Info()
		if rec.status >= http.StatusInternalServerError {
			event = logging.Error()
		}
		event.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}
