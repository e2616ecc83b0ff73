package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func runAuth(t *testing.T, cfg config.Config, authz string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
	err := AuthJWT(cfg)(next)(c)
	assert.NoError(t, err)
	return rec, c
}

func TestAuthJWT_ValidToken(t *testing.T) {
	cfg := config.Config{JWTSecret: "test_secret"}
	now := time.Now()

	token := signToken(t, "test_secret", jwt.MapClaims{
		"sub":  int64(7),
		"role": "USER",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})

	rec, c := runAuth(t, cfg, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(CtxUserIDKey))
	assert.Equal(t, "USER", c.Get(CtxUserRoleKey))
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: "test_secret"}

	rec, _ := runAuth(t, cfg, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	cfg := config.Config{JWTSecret: "test_secret"}
	now := time.Now()

	token := signToken(t, "other_secret", jwt.MapClaims{
		"sub":  int64(7),
		"role": "USER",
		"exp":  now.Add(time.Hour).Unix(),
	})

	rec, _ := runAuth(t, cfg, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	cfg := config.Config{JWTSecret: "test_secret"}
	now := time.Now()

	token := signToken(t, "test_secret", jwt.MapClaims{
		"sub":  int64(7),
		"role": "USER",
		"exp":  now.Add(-time.Hour).Unix(),
	})

	rec, _ := runAuth(t, cfg, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_MalformedHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: "test_secret"}

	rec, _ := runAuth(t, cfg, "Token abcdef")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}

	newCtx := func(role string) (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if role != "" {
			c.Set(CtxUserRoleKey, role)
		}
		return c, rec
	}

	//許可role
	c, rec := newCtx("ADMIN")
	assert.NoError(t, RequireRole(model.RoleAdmin)(next)(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	//許可されないrole
	c, rec = newCtx("USER")
	assert.NoError(t, RequireRole(model.RoleAdmin)(next)(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	//roleなし（AuthJWT前に呼ばれた等）
	c, rec = newCtx("")
	assert.NoError(t, RequireRole(model.RoleAdmin)(next)(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
