package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stylistiq/wardrobe-api/internal/models"
	"github.com/stylistiq/wardrobe-api/internal/service"
	appErrors "github.com/stylistiq/wardrobe-api/pkg/errors"
	"github.com/stylistiq/wardrobe-api/pkg/response"
)

// ContextPrincipalKey is the gin context key storing the resolved Principal.
const ContextPrincipalKey = "currentPrincipal"

// PrincipalConfig tunes the anonymous-session cookie.
type PrincipalConfig struct {
	CookieName    string
	SecureCookies bool
}

// Principal resolves every request to exactly one owner identity before the
// handlers run. Authenticated requests (claims set by OptionalJWT) map to
// the account; everything else maps to an anonymous session carried in a
// cookie, minted here on first contact.
func Principal(identity *service.IdentityService, cfg PrincipalConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = "wardrobe_session"
	}
	return func(c *gin.Context) {
		if claimsValue, exists := c.Get(ContextUserKey); exists {
			claims := claimsValue.(*models.JWTClaims)
			c.Set(ContextPrincipalKey, identity.FromClaims(claims))
			c.Next()
			return
		}

		cookieToken, _ := c.Cookie(cfg.CookieName)
		principal, setCookie, err := identity.ResolveAnonymous(c.Request.Context(), cookieToken)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to establish session"))
			c.Abort()
			return
		}

		if setCookie {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.CookieName, principal.SessionToken, int(identity.AnonTTL().Seconds()), "/", "", cfg.SecureCookies, true)
		}

		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}
