package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"relaychat/backend/internal/auth"
	"relaychat/backend/internal/chathub"
	"relaychat/backend/internal/storage"
)

// Handler wires the HTTP surface to the gateway, the store and the verifier.
type Handler struct {
	Hub      *chathub.GatewayService
	Storage  storage.Storage
	Verifier *auth.Verifier
}

func NewHandler(hub *chathub.GatewayService, s storage.Storage, v *auth.Verifier) *Handler {
	return &Handler{Hub: hub, Storage: s, Verifier: v}
}

// bearerToken extracts the credential from an Authorization: Bearer header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}
