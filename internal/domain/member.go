// Package domain contains entities without logic, just meta-data.
package domain

const MaxUsernameLen = 36

// ConnID identifies one live connection. Minted fresh at every socket
// upgrade, so a reconnect is a new member.
type ConnID string

// Member is a connection's participation in a room. Owned by its room,
// never shared between rooms.
type Member struct {
	ID        ConnID `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar,omitempty"`
}

// NewMember avoids raw literals in adapters and keeps validation in one place.
func NewMember(id ConnID, username, avatarURL string) (*Member, error) {
	if len(username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	return &Member{ID: id, Username: username, AvatarURL: avatarURL}, nil
}
