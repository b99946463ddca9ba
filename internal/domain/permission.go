package domain

// PermissionKey identifies one of the engine's closed set of permissions.
type PermissionKey string

// Permission keys
const (
	PermOpenInterface     PermissionKey = "open_interface"
	PermLearnRecipes      PermissionKey = "learn_recipes"
	PermResetTabs         PermissionKey = "reset_tabs"
	PermManageRecipes     PermissionKey = "manage_recipes"
	PermCreateRecipes     PermissionKey = "create_recipes"
	PermManageTabs        PermissionKey = "manage_tabs"
	PermManagePermissions PermissionKey = "manage_permissions"
	PermAdminSettings     PermissionKey = "admin_settings"
	PermGivePoints        PermissionKey = "give_points"
)

// PermissionKeys enumerates every key; role-default tables are total over it.
var PermissionKeys = []PermissionKey{
	PermOpenInterface,
	PermLearnRecipes,
	PermResetTabs,
	PermManageRecipes,
	PermCreateRecipes,
	PermManageTabs,
	PermManagePermissions,
	PermAdminSettings,
	PermGivePoints,
}

// ValidPermissionKey reports whether k is part of the closed enumeration.
func ValidPermissionKey(k PermissionKey) bool {
	for _, known := range PermissionKeys {
		if known == k {
			return true
		}
	}
	return false
}

// RoleLevel is the coarse server-assigned rank used as the last layer of the
// permission cascade.
type RoleLevel int

// Role levels, lowest to highest
const (
	RolePlayer RoleLevel = iota
	RoleOperator
	RoleAdmin
)

func (r RoleLevel) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOperator:
		return "operator"
	default:
		return "player"
	}
}

// ParseRoleLevel maps a role name to its level, defaulting to player.
func ParseRoleLevel(s string) RoleLevel {
	switch s {
	case "admin":
		return RoleAdmin
	case "operator", "op":
		return RoleOperator
	default:
		return RolePlayer
	}
}
