// File: internal/common/roles.go
package common

import (
	"fmt"
	"strings"
)

// Role classifies an account. It drives which operations a user may perform:
// farmers own listings, buyers and food banks file requests against them.
type Role string

const (
	RoleFarmer   Role = "farmer"
	RoleBuyer    Role = "buyer"
	RoleFoodBank Role = "foodbank"
)

// ParseRole normalizes a raw role string at the input boundary. Stored roles
// are always the canonical lowercase form.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleFarmer:
		return RoleFarmer, nil
	case RoleBuyer:
		return RoleBuyer, nil
	case RoleFoodBank:
		return RoleFoodBank, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

func (r Role) String() string {
	return string(r)
}

// IsRequester reports whether the role is allowed to file produce requests.
func (r Role) IsRequester() bool {
	return r == RoleBuyer || r == RoleFoodBank
}
