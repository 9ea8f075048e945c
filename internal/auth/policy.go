package auth

import "relaychat/backend/internal/models"

// CanAccessChannel reports whether a role may join or post to a channel.
// Only the support channel is restricted; it requires ADMIN.
func CanAccessChannel(channel models.ChannelKey, role models.Role) bool {
	if channel == models.ChannelSupport && role != models.RoleAdmin {
		return false
	}
	return true
}

// RequireAdmin reports whether a role may perform moderation operations.
func RequireAdmin(role models.Role) bool {
	return role == models.RoleAdmin
}
