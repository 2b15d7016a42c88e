package models

// RoleGeneral is the default, unprivileged member role.
const RoleGeneral = "general"

// privilegedRoles may delete any message and clear the chat.
var privilegedRoles = map[string]bool{
	"system-admin": true,
	"admin":        true,
	"moderator":    true,
}

// IsPrivileged reports whether the role belongs to the moderation set.
func IsPrivileged(role string) bool {
	return privilegedRoles[role]
}

// CanDeleteMessage reports whether the requester may delete a message owned
// by ownerUsername.
func CanDeleteMessage(ownerUsername, requestUsername, requestRole string) bool {
	return ownerUsername == requestUsername || IsPrivileged(requestRole)
}

// CanClearChat reports whether the role may wipe the whole chat. Any
// non-general role is allowed.
func CanClearChat(role string) bool {
	return role != RoleGeneral
}
