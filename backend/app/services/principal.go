package services

import (
	"strings"

	"blog-system/backend/app/models"
)

// Principal is the authenticated caller of a service operation.
type Principal struct {
	ID       uint
	Username string
	Role     string
}

func (p *Principal) HasRole(role string) bool {
	return p != nil && strings.EqualFold(p.Role, role)
}

// CanEdit reports whether p may edit or delete a: admins may touch any
// article, everyone else only their own.
func CanEdit(p *Principal, a *models.Article) bool {
	if p == nil || a == nil {
		return false
	}
	return p.HasRole(models.RoleAdmin) || a.IsAuthor(p.ID)
}
