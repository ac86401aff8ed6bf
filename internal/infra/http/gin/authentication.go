package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"tradehub/internal/app/services/identity"
	domainuser "tradehub/internal/domain/user"
)

const principalContextKey = "tradehub.principal"

type AuthMiddleware struct {
	Resolver identity.Resolver
	Logger   *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		c.Next()
		return
	}
	user, err := m.Resolver.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, identity.ErrUnresolved) && m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, user)
	c.Next()
}

func setPrincipal(c *gin.Context, u *domainuser.User) {
	c.Set(principalContextKey, u)
}

func currentPrincipal(c *gin.Context) (*domainuser.User, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return nil, false
	}
	u, ok := val.(*domainuser.User)
	return u, ok && u != nil
}

func requireUser(c *gin.Context) (*domainuser.User, bool) {
	u, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return nil, false
	}
	return u, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
