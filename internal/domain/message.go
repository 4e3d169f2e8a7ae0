package domain

// ChatMessage is one entry of a room's bounded history. Timestamp is
// unix milliseconds; ID is derived from it and strictly monotonic
// within a room.
type ChatMessage struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Body      string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
