package chatfast

// Event names pushed by the chat relay over the websocket.
const (
	EventMessage     = "message"
	EventMemberLeave = "member_leave"
)

// Message is one gateway event. Snowflake ids arrive as JSON strings.
// For member_leave events Content is empty and ChannelID may be zero.
type Message struct {
	Event      string `json:"event"`
	GuildID    uint64 `json:"guild_id,string"`
	ChannelID  uint64 `json:"channel_id,string"`
	AuthorID   uint64 `json:"author_id,string"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

// ReplyRequest posts text into a channel via the relay.
type ReplyRequest struct {
	Type      string `json:"type"`
	ChannelID uint64 `json:"channel_id,string"`
	Data      string `json:"data"`
}

// DirectMessageRequest sends text to a user's DM via the relay.
type DirectMessageRequest struct {
	Type   string `json:"type"`
	UserID uint64 `json:"user_id,string"`
	Data   string `json:"data"`
}

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateDisconnected:
		return "disconnected"
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
