package middleware

import (
	"net/http"
	"strings"

	"example.com/fieldwork/services/workorders/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// identityContextKey is where the resolved identity lives in the gin context
const identityContextKey = "identity"

// SessionLoader resolves the session cookie into an identity and stores
// it in the request context. Missing or unknown tokens are not an error
// here; the guards below decide.
func SessionLoader(sessions auth.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		identity, err := sessions.Get(c.Request.Context(), token)
		if err != nil {
			if err != auth.ErrSessionNotFound {
				log.Warn().Err(err).Msg("Failed to load session")
			}
			c.Next()
			return
		}

		c.Set(identityContextKey, identity)
		c.Next()
	}
}

// CurrentIdentity retrieves the authenticated identity, if any
func CurrentIdentity(c *gin.Context) (*auth.Identity, bool) {
	val, exists := c.Get(identityContextKey)
	if !exists {
		return nil, false
	}
	identity, ok := val.(*auth.Identity)
	return identity, ok
}

// RequireLogin rejects requests without a session
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentIdentity(c); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not logged in"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole authorizes exactly one role. Policy is uniform: no
// session is 401, a session without a role is 403, and a role mismatch
// is 403. Comparison is case-insensitive.
func RequireRole(wanted string) gin.HandlerFunc {
	return RequireAnyRole(wanted)
}

// RequireAnyRole authorizes any of the given roles
func RequireAnyRole(wanted ...string) gin.HandlerFunc {
	need := make([]string, len(wanted))
	for i, w := range wanted {
		need[i] = strings.ToLower(w)
	}

	return func(c *gin.Context) {
		identity, ok := CurrentIdentity(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Not logged in"})
			c.Abort()
			return
		}

		role := strings.ToLower(strings.TrimSpace(identity.Role))
		if role == "" {
			c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden (missing role in session)"})
			c.Abort()
			return
		}

		for _, n := range need {
			if role == n {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
		c.Abort()
	}
}
