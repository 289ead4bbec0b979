package community

import (
	"strings"

	"skillhub/internal/models"
)

// MemberRole returns the role of userID in c. Member references may be
// bare ids or populated user objects; both compare by their string id.
func MemberRole(c models.Community, userID any) (string, bool) {
	uid := models.IDToStr(userID)
	if uid == "" {
		return "", false
	}
	for _, m := range c.Members {
		if models.IDToStr(m.UserID) == uid {
			return strings.ToLower(m.Role), true
		}
	}
	return "", false
}

func IsMemberOf(c models.Community, userID any) bool {
	_, ok := MemberRole(c, userID)
	return ok
}

func IsAdminOf(c models.Community, userID any) bool {
	role, ok := MemberRole(c, userID)
	return ok && role == models.RoleAdmin
}

// AdminCount is the number of members holding the admin role.
func AdminCount(c models.Community) int {
	n := 0
	for _, m := range c.Members {
		if strings.EqualFold(m.Role, models.RoleAdmin) {
			n++
		}
	}
	return n
}
