package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CheckUserKey holds the viewer's user id (uint) once LoadUser found one.
const CheckUserKey = "user_id"

// SessionUserKey is the session field written by the login service.
const SessionUserKey = "user_id"

// AuthRequired rejects requests without a viewer identity.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CheckUserKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   http.StatusText(http.StatusUnauthorized),
				"message": "login required",
			})
			return
		}
		c.Next()
	}
}

// LoadUser retrieves the user id from the session and sets it on the context
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if id, ok := toUserID(session.Get(SessionUserKey)); ok {
			c.Set(CheckUserKey, id)
		}
		c.Next()
	}
}

// ViewerID returns the current user id, or nil for anonymous requests.
func ViewerID(c *gin.Context) *uint {
	v, exists := c.Get(CheckUserKey)
	if !exists {
		return nil
	}
	id, ok := v.(uint)
	if !ok {
		return nil
	}
	return &id
}

// session 里的值可能以不同数字类型编码
func toUserID(v interface{}) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id > 0
	case int:
		return uint(id), id > 0
	case int64:
		return uint(id), id > 0
	case uint64:
		return uint(id), id > 0
	case float64:
		return uint(id), id >= 1 && id == math.Trunc(id)
	case string:
		n, err := strconv.ParseUint(id, 10, 64)
		return uint(n), err == nil && n > 0
	}
	return 0, false
}
