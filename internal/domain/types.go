package domain

import "strings"

// Roles known to the back-office.
const (
	RoleAdmin     = "admin"
	RoleSeller    = "seller"
	RoleBuyer     = "buyer"
	RoleEmployer  = "employer"
	RoleJobSeeker = "jobseeker"
)

// Session is the authenticated caller. It is parsed once by the auth
// middleware and handed to services explicitly.
type Session struct {
	ID     string `json:"sessionId"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

func (s Session) IsAdmin() bool {
	return strings.EqualFold(s.Role, RoleAdmin)
}

// NormalizeRole maps the aliases used by the storefront onto the roles above.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	switch r {
	case "vendor":
		return RoleSeller
	case "company":
		return RoleEmployer
	case "job_seeker", "job-seeker", "candidate":
		return RoleJobSeeker
	}
	return r
}

// Pagination carries paging params and totals.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
	Pages    int `json:"pages"`
}
