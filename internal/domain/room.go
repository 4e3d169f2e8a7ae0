package domain

import "strings"

type RoomCode string

const (
	CodeLength   = 6
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NormalizeCode uppercases a client-supplied code so lookups are
// case-insensitive. Codes are stored uppercase only.
func NormalizeCode(raw string) RoomCode {
	return RoomCode(strings.ToUpper(strings.TrimSpace(raw)))
}
