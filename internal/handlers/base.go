package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"stylevote/internal/services"

	"github.com/gin-gonic/gin"
)

// RespondError maps core errors to status codes and writes a JSON body.
func RespondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrPostNotFound), errors.Is(err, services.ErrOptionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrAlreadyVoted):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	ErrorJSON(c, status, err.Error())
}

// ErrorJSON writes {error, message}
func ErrorJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		ErrorJSON(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter, falling back to def when absent.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		ErrorJSON(c, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return n, true
}
