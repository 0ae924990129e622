package serverutils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookieName = "review_session"
	SessionLocalKey   = "session_id"
)

// SessionTokens signs and verifies the session cookie.
type SessionTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionTokens(secret string, ttl time.Duration) *SessionTokens {
	return &SessionTokens{secret: []byte(secret), ttl: ttl}
}

type sessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

func (s *SessionTokens) Sign(sessionID string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *SessionTokens) Parse(tokenStr string) (string, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.SessionID, nil
}

// SetCookie stores a freshly signed token for sessionID on the response.
func (s *SessionTokens) SetCookie(ctx *fiber.Ctx, sessionID string) error {
	token, err := s.Sign(sessionID)
	if err != nil {
		return err
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *SessionTokens) ClearCookie(ctx *fiber.Ctx) {
	ctx.ClearCookie(SessionCookieName)
}

// Middleware resolves the session id from the cookie, or from a bearer token
// for API clients, and stores it in ctx.Locals. Requests without a valid
// token pass through with no session id.
func (s *SessionTokens) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		tokenStr := ctx.Cookies(SessionCookieName)
		if tokenStr == "" {
			authHeader := ctx.Get("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenStr = authHeader[7:]
			}
		}
		if tokenStr != "" {
			if id, err := s.Parse(tokenStr); err == nil {
				ctx.Locals(SessionLocalKey, id)
			}
		}
		return ctx.Next()
	}
}

// SessionID returns the id set by Middleware, or "".
func SessionID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(SessionLocalKey).(string)
	return id
}

// RequireSession rejects requests without a session id.
func RequireSession(ctx *fiber.Ctx) error {
	if SessionID(ctx) == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing session"))
	}
	return ctx.Next()
}

// AdminTokenMiddleware guards admin routes with a static bearer token. An
// empty token disables the admin routes.
func AdminTokenMiddleware(token string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if token == "" {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Admin API disabled"))
		}
		if ctx.Get("Authorization") != "Bearer "+token {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid admin token"))
		}
		return ctx.Next()
	}
}
