package model

import "time"

// ConnID identifies a live transport connection. The transport allocates it.
type ConnID string

// Role distinguishes players from spectators
type Role string

const (
	RolePlayer    Role = "player"
	RoleSpectator Role = "spectator"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleSpectator
}

// Player is a member of a room
type Player struct {
	ID   ConnID // Empty until a live connection binds to this player
	Name string
	Role Role

	// Per-round flags, reset by every round start
	HasGuessed bool
	HasRanked  bool
	IsGuesser  bool

	JoinedAt time.Time
}

// Connected reports whether a live connection is bound to the player
func (p Player) Connected() bool {
	return p.ID != ""
}
