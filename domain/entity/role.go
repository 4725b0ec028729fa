package entity

// Roles form a closed set. They are embedded in access token claims at mint
// time and checked by the role guard middleware.
const (
	RoleAdmin      = "admin"
	RoleCustomer   = "customer"
	RoleTechnician = "technician"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleCustomer, RoleTechnician:
		return true
	}
	return false
}
