package models

// ChannelKey identifies one of the fixed chat channels. The set is closed:
// adding a channel is a code change, not data.
type ChannelKey string

const (
	// ChannelGeneral is open to any authenticated principal.
	ChannelGeneral ChannelKey = "general"
	// ChannelSupport is restricted to ADMIN principals for both joining and posting.
	ChannelSupport ChannelKey = "support"
)

// ParseChannelKey validates a raw channel name against the closed set.
func ParseChannelKey(s string) (ChannelKey, bool) {
	switch ChannelKey(s) {
	case ChannelGeneral, ChannelSupport:
		return ChannelKey(s), true
	}
	return "", false
}
