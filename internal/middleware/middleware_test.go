package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID uuid.UUID, expires time.Time, secret string) string {
	t.Helper()
	claims := &Claims{
		UserID:           userID,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

type mockMembership struct {
	members  map[uuid.UUID]bool
	fallback uuid.UUID
	err      error
}

func (m *mockMembership) IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	return m.members[companyID], m.err
}

func (m *mockMembership) DefaultCompany(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if m.fallback == uuid.Nil {
		return uuid.Nil, &services.NotFoundError{Entity: "company"}
	}
	return m.fallback, m.err
}

func newRouter(checker MembershipChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(testSecret), ActiveCompany(checker))
	router.GET("/whoami", func(c *gin.Context) {
		actor := services.ActorFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c), "company": GetCompanyID(c), "actor": actor})
	})
	return router
}

func TestAuthAndActiveCompany(t *testing.T) {
	user := uuid.New()
	member := uuid.New()
	stranger := uuid.New()
	checker := &mockMembership{members: map[uuid.UUID]bool{member: true}, fallback: member}
	valid := signToken(t, user, time.Now().Add(time.Hour), testSecret)

	tests := []struct {
		name    string
		header  string
		company string
		status  int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"malformed header", "Token " + valid, "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, user, time.Now().Add(time.Hour), "other"), "", http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, user, time.Now().Add(-time.Hour), testSecret), "", http.StatusUnauthorized},
		{"default company", "Bearer " + valid, "", http.StatusOK},
		{"member company", "Bearer " + valid, member.String(), http.StatusOK},
		{"foreign company", "Bearer " + valid, stranger.String(), http.StatusForbidden},
		{"company not a uuid", "Bearer " + valid, "acme", http.StatusBadRequest},
	}

	router := newRouter(checker)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.company != "" {
				req.Header.Set(CompanyHeader, tt.company)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Contains(t, w.Body.String(), member.String())
				assert.Contains(t, w.Body.String(), `"actor":"`+user.String()+`"`)
			}
		})
	}
}

func TestActiveCompany_UserWithoutCompany(t *testing.T) {
	router := newRouter(&mockMembership{})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), time.Now().Add(time.Hour), testSecret))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestActiveCompany_CheckerFailure(t *testing.T) {
	company := uuid.New()
	router := newRouter(&mockMembership{members: map[uuid.UUID]bool{company: true}, err: errors.New("db down")})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), time.Now().Add(time.Hour), testSecret))
	req.Header.Set(CompanyHeader, company.String())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), strings.ToLower(CompanyHeader))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	// same-origin and non-browser clients send no Origin
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_WildcardEchoesOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{"*"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://anything.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://anything.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
