package domain

// Role is the part a connection plays inside a session.
type Role string

const (
	// RolePrompter is the authoritative display and the source of state.
	RolePrompter Role = "prompter"
	// RoleRemote is a controller and the source of commands.
	RoleRemote Role = "remote"
)

func (r Role) Valid() bool {
	return r == RolePrompter || r == RoleRemote
}
