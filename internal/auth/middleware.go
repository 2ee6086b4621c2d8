package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserKey gin 上下文中当前用户的键
const ContextUserKey = "current_user"

// Middleware 校验 Bearer token，失败时返回 401
func Middleware(s *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c)
			return
		}

		user, err := s.Authenticate(token)
		if err != nil {
			unauthorized(c)
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser 获取中间件写入的用户
func CurrentUser(c *gin.Context) (*User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*User)
	return user, ok
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": ErrInvalidToken.Error()})
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
