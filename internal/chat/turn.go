package chat

import "time"

// Role identifies the author of a conversational turn.
const (
	RoleHuman = "human"
	RoleAI    = "ai"
)

// Turn is a single message in an ordering conversation. Turns are immutable
// once ingested; extraction only reads Content.
type Turn struct {
	SessionID string
	Role      string
	Content   string
	Sequence  int64 // arrival order within the session
	Timestamp time.Time
}
