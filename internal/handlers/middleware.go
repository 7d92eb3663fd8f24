package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	operatorCtxKey = "operatorId"
	// browsers cannot set headers on a WebSocket handshake
	accessTokenQuery = "access_token"
)

func (h *Handler) operatorMiddleware(c *gin.Context) {
	token, msg := bearerToken(c)
	if msg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
		return
	}

	operatorID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("operator_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	c.Set(operatorCtxKey, operatorID)
	c.Next()
}

// bearerToken takes the token from "Authorization: Bearer <t>" or, failing
// that, the access_token query parameter. msg is set when neither is usable.
func bearerToken(c *gin.Context) (token, msg string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := strings.TrimSpace(c.Query(accessTokenQuery)); q != "" {
			return q, ""
		}
		return "", "missing Authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", "invalid Authorization header format"
	}
	return strings.TrimSpace(token), ""
}
