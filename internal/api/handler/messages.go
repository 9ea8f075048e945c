package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"relaychat/backend/internal/auth"
	"relaychat/backend/internal/chathub"
	"relaychat/backend/internal/models"
	"relaychat/backend/internal/storage"
)

func fail(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{"ok": false, "error": code})
}

// verifyRequest runs the per-request credential check. Every history and
// moderation call is independent of any live-connection session.
func (h *Handler) verifyRequest(c *gin.Context) (*auth.Principal, bool) {
	principal, err := h.Verifier.Verify(bearerToken(c))
	if err != nil {
		fail(c, http.StatusUnauthorized, chathub.ErrCodeUnauthorized)
		return nil, false
	}
	return principal, true
}

// ListMessages handles GET /messages. Descending creation order, cursor
// pagination (cursor = last seen message id, exclusive).
func (h *Handler) ListMessages(c *gin.Context) {
	principal, ok := h.verifyRequest(c)
	if !ok {
		return
	}

	channel, ok := models.ParseChannelKey(c.Query("channel"))
	if !ok {
		fail(c, http.StatusBadRequest, chathub.ErrCodeInvalidChannel)
		return
	}
	if !auth.CanAccessChannel(channel, principal.Role) {
		fail(c, http.StatusForbidden, chathub.ErrCodeForbidden)
		return
	}

	take, _ := strconv.Atoi(c.Query("take"))
	messages, err := h.Storage.ListMessages(c.Request.Context(), channel, take, c.Query("cursor"))
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			fail(c, http.StatusBadRequest, "INVALID_CURSOR")
			return
		}
		fail(c, http.StatusInternalServerError, "LIST_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "messages": messages})
}

// FlushChannel handles DELETE /messages/flush. Admin only, regardless of
// channel.
func (h *Handler) FlushChannel(c *gin.Context) {
	principal, ok := h.verifyRequest(c)
	if !ok {
		return
	}
	if !auth.RequireAdmin(principal.Role) {
		fail(c, http.StatusForbidden, chathub.ErrCodeForbidden)
		return
	}

	channel, ok := models.ParseChannelKey(c.Query("channel"))
	if !ok {
		fail(c, http.StatusBadRequest, chathub.ErrCodeInvalidChannel)
		return
	}

	deleted, err := h.Storage.FlushChannel(c.Request.Context(), channel)
	if err != nil {
		fail(c, http.StatusInternalServerError, "FLUSH_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted, "channelKey": channel})
}

// DeleteMessage handles DELETE /messages/:id. Admin only. The response
// carries the channel of the deleted row so the caller can react.
func (h *Handler) DeleteMessage(c *gin.Context) {
	principal, ok := h.verifyRequest(c)
	if !ok {
		return
	}
	if !auth.RequireAdmin(principal.Role) {
		fail(c, http.StatusForbidden, chathub.ErrCodeForbidden)
		return
	}

	id := c.Param("id")
	msg, err := h.Storage.DeleteMessage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			fail(c, http.StatusNotFound, "NOT_FOUND")
			return
		}
		fail(c, http.StatusInternalServerError, "DELETE_FAILED")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": true, "id": msg.ID, "channelKey": msg.ChannelKey})
}
