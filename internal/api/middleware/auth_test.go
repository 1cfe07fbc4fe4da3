package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"example.com/fieldwork/services/workorders/internal/auth"
	"example.com/fieldwork/services/workorders/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(sessions auth.Store, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SessionLoader(sessions, "fwd_session"))
	router.GET("/guarded", guard, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	return router
}

func sessionRequest(t *testing.T, sessions auth.Store, identity *auth.Identity) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if identity != nil {
		token, err := sessions.Create(context.Background(), *identity)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "fwd_session", Value: token})
	}
	return req
}

func TestRequireRoleWithoutSession(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)
	router := newTestRouter(sessions, RequireRole(models.RoleAdmin))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, sessionRequest(t, sessions, nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Not logged in")
}

func TestRequireRoleMismatch(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)
	router := newTestRouter(sessions, RequireRole(models.RoleAdmin))

	identity := &auth.Identity{UserID: 7, Role: models.RoleDispatcher}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, sessionRequest(t, sessions, identity))

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleEmptyRole(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)
	router := newTestRouter(sessions, RequireRole(models.RoleAdmin))

	identity := &auth.Identity{UserID: 7, Role: "   "}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, sessionRequest(t, sessions, identity))

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "missing role in session")
}

func TestRequireRoleMatchIsCaseInsensitive(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)
	router := newTestRouter(sessions, RequireRole(models.RoleAdmin))

	identity := &auth.Identity{UserID: 7, Role: "Admin"}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, sessionRequest(t, sessions, identity))

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAnyRole(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)
	router := newTestRouter(sessions, RequireAnyRole(models.RoleDispatcher, models.RoleAdmin))

	identity := &auth.Identity{UserID: 7, Role: models.RoleAdmin}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, sessionRequest(t, sessions, identity))

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRequireLoginPassesIdentityThrough(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(SessionLoader(sessions, "fwd_session"))
	router.GET("/guarded", RequireLogin(), func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user_id": identity.UserID})
	})

	identity := &auth.Identity{UserID: 7, Role: models.RoleTeamLeader}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, sessionRequest(t, sessions, identity))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestSessionLoaderIgnoresUnknownToken(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)
	router := newTestRouter(sessions, RequireLogin())

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.AddCookie(&http.Cookie{Name: "fwd_session", Value: "stale-token"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
