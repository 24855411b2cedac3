package users

import (
	"fmt"
	"strings"
)

// Role is the backend role of a user. The set is fixed.
type Role string

const (
	RoleFarmer                 Role = "FARMER"
	RoleAgriculturalIndustry   Role = "AGRICULTURAL_INDUSTRY"
	RolePharmaceuticalIndustry Role = "PHARMACEUTICAL_INDUSTRY"
	RoleAdmin                  Role = "ADMIN"
)

// DisplayRole is the role name shown on the dashboard and accepted on the command line.
type DisplayRole string

const (
	DisplayFarmer         DisplayRole = "farmer"
	DisplayAgricultural   DisplayRole = "agricultural"
	DisplayPharmaceutical DisplayRole = "pharmaceutical"
	DisplayAdmin          DisplayRole = "admin"
)

var roleToDisplay = map[Role]DisplayRole{
	RoleFarmer:                 DisplayFarmer,
	RoleAgriculturalIndustry:   DisplayAgricultural,
	RolePharmaceuticalIndustry: DisplayPharmaceutical,
	RoleAdmin:                  DisplayAdmin,
}

var displayToRole = map[DisplayRole]Role{
	DisplayFarmer:         RoleFarmer,
	DisplayAgricultural:   RoleAgriculturalIndustry,
	DisplayPharmaceutical: RolePharmaceuticalIndustry,
	DisplayAdmin:          RoleAdmin,
}

// Roles returns every backend role in a stable order.
func Roles() []Role {
	return []Role{RoleFarmer, RoleAgriculturalIndustry, RolePharmaceuticalIndustry, RoleAdmin}
}

func (r Role) Valid() bool {
	_, ok := roleToDisplay[r]
	return ok
}

// Display maps a backend role to its dashboard name. Unknown roles map to "".
func (r Role) Display() DisplayRole {
	return roleToDisplay[r]
}

func (d DisplayRole) Valid() bool {
	_, ok := displayToRole[d]
	return ok
}

// Role maps a dashboard role to its backend role. Unknown display roles map to "".
func (d DisplayRole) Role() Role {
	return displayToRole[d]
}

// ParseDisplayRole accepts a display name ("farmer") or a backend name ("FARMER").
func ParseDisplayRole(s string) (DisplayRole, error) {
	v := strings.TrimSpace(s)
	if d := DisplayRole(strings.ToLower(v)); d.Valid() {
		return d, nil
	}
	if r := Role(strings.ToUpper(v)); r.Valid() {
		return r.Display(), nil
	}
	return "", fmt.Errorf("unknown role %q (valid options: farmer, agricultural, pharmaceutical, admin)", s)
}
