// Package authz holds the role checks shared by the session store, the
// navigation guards and the view models.
package authz

import "github.com/utafrali/storefront/internal/domain"

// Allows reports whether user may access something restricted to required.
// A nil user is never allowed; an empty required list admits any
// authenticated user.
func Allows(user *domain.User, required ...domain.Role) bool {
	if user == nil {
		return false
	}
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if user.Role == r {
			return true
		}
	}
	return false
}

// CanDeleteMessage reports whether user may delete msg: senders may delete
// their own messages and admins may delete any message.
func CanDeleteMessage(user *domain.User, msg domain.ChatMessage) bool {
	if user == nil {
		return false
	}
	return msg.EmeteurID == user.ID || user.Role == domain.RoleAdmin
}
