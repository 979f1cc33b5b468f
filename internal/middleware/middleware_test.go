package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

const studentID = "3b241101-e2bb-4255-8caf-4136c566a962"

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	if token == "expired" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token expired")
	}
	return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
}

var tokens = stubValidator{
	"admin":   {Role: models.RoleAdmin},
	"student": {Role: models.RoleStudent, StudentID: studentID},
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/students/:id", append(handlers, func(c *gin.Context) {
		actor := CurrentActor(c)
		if actor == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, string(actor.Role))
	})...)
	return r
}

func do(r http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWT(t *testing.T) {
	r := newRouter(JWT(tokens))

	cases := []struct {
		name   string
		auth   string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "missing bearer token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid authorization header"},
		{"empty token", "Bearer  ", http.StatusUnauthorized, "invalid authorization header"},
		{"expired", "Bearer expired", http.StatusUnauthorized, "token expired"},
		{"forged", "Bearer forged", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"admin", "Bearer admin", http.StatusOK, "admin"},
		{"case insensitive scheme", "bearer student", http.StatusOK, "student"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(r, "/students/x", tc.auth)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestOptionalJWT(t *testing.T) {
	r := newRouter(OptionalJWT(tokens))

	assert.Equal(t, "anonymous", do(r, "/students/x", "").Body.String())
	assert.Equal(t, "anonymous", do(r, "/students/x", "Bearer expired").Body.String())
	assert.Equal(t, "student", do(r, "/students/x", "Bearer student").Body.String())
}

func TestRBAC(t *testing.T) {
	adminOnly := newRouter(JWT(tokens), RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, do(adminOnly, "/students/"+studentID, "Bearer admin").Code)
	assert.Equal(t, http.StatusForbidden, do(adminOnly, "/students/"+studentID, "Bearer student").Code)

	adminOrSelf := newRouter(JWT(tokens), RBAC(string(models.RoleAdmin), AllowSelf))
	assert.Equal(t, http.StatusOK, do(adminOrSelf, "/students/"+studentID, "Bearer student").Code)
	assert.Equal(t, http.StatusForbidden, do(adminOrSelf, "/students/someone-else", "Bearer student").Code)

	withoutJWT := newRouter(RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, do(withoutJWT, "/students/x", "").Code)
}

type recordingObserver struct {
	path   string
	status int
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.path = path
	o.status = status
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/students/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, "/students/abc", "")
	assert.Equal(t, "/students/:id", observer.path)
	assert.Equal(t, http.StatusOK, observer.status)

	do(r, "/nowhere", "")
	assert.Equal(t, "unmatched", observer.path)
	assert.Equal(t, http.StatusNotFound, observer.status)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var meta map[string]interface{}
	r.GET("/", WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "student_id", studentID)
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	do(r, "/", "")
	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, studentID, meta["student_id"])
	assert.Contains(t, meta, "processing_time_ms")
}
