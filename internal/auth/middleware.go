package auth

import (
	"net/http"
	"strings"

	"advising_queue/internal/constant"
	"advising_queue/internal/response"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// AdminMiddleware admits requests carrying an admin token, either as a Bearer
// Authorization header or, for websocket upgrades, as the token query parameter.
func (a *Authenticator) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "NO_AUTH_HEADER",
				Message: "Authorization required",
			})
			return
		}

		email, err := a.ParseAdminToken(tokenString)
		if errors.Is(err, ErrNotAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{
				Code:    "NOT_ADMIN",
				Message: err.Error(),
			})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: err.Error(),
			})
			return
		}

		c.Set(constant.AdminEmailKey, email)
		c.Next()
	}
}
