package models

// Role is the caller's role in the approval workflow.
type Role string

const (
	RoleRequester Role = "requester"
	RoleAdmin     Role = "admin"
)

// SessionContext is the identity a store call is made on behalf of.
type SessionContext struct {
	UserID      int    `json:"userId"`
	DisplayName string `json:"name"`
	Role        Role   `json:"role"`
	SiteURL     string `json:"siteUrl"`
}

func (s SessionContext) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Filters is the admin dashboard view state.
type Filters struct {
	SearchTerm string `json:"searchTerm"`
	Status     string `json:"status"`
}

// StatusAll disables the status filter.
const StatusAll = "all"

// DefaultFilters is the state a fresh session starts with.
func DefaultFilters() Filters {
	return Filters{SearchTerm: "", Status: StatusAll}
}
