// Package permission implements the layered permission cascade:
// player override, then group override, then role default.
package permission

import (
	"fmt"
	"sync"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// defaultRoleTable returns the builtin role defaults. Players may open the
// interface and learn recipes; operators additionally moderate players
// (resets, point grants, recipe and tab management) but get no engine
// settings, recipe creation, or permission administration; admins get
// everything.
func defaultRoleTable() map[domain.RoleLevel]map[domain.PermissionKey]bool {
	players := map[domain.PermissionKey]bool{
		domain.PermOpenInterface: true,
		domain.PermLearnRecipes:  true,
	}
	operators := map[domain.PermissionKey]bool{
		domain.PermOpenInterface: true,
		domain.PermLearnRecipes:  true,
		domain.PermResetTabs:     true,
		domain.PermManageRecipes: true,
		domain.PermManageTabs:    true,
		domain.PermGivePoints:    true,
	}
	admins := make(map[domain.PermissionKey]bool, len(domain.PermissionKeys))
	for _, key := range domain.PermissionKeys {
		admins[key] = true
	}
	return map[domain.RoleLevel]map[domain.PermissionKey]bool{
		domain.RolePlayer:   players,
		domain.RoleOperator: operators,
		domain.RoleAdmin:    admins,
	}
}

// Resolver answers permission checks for players. All methods are safe for
// concurrent use.
type Resolver struct {
	mu              sync.RWMutex
	roleDefaults    map[domain.RoleLevel]map[domain.PermissionKey]bool
	groupOverrides  map[string]map[domain.PermissionKey]bool
	playerOverrides map[domain.PlayerID]map[domain.PermissionKey]bool
	playerGroups    map[domain.PlayerID]string
	playerRoles     map[domain.PlayerID]domain.RoleLevel
}

// NewResolver creates a resolver with the builtin role defaults and no
// overrides.
func NewResolver() *Resolver {
	return &Resolver{
		roleDefaults:    defaultRoleTable(),
		groupOverrides:  make(map[string]map[domain.PermissionKey]bool),
		playerOverrides: make(map[domain.PlayerID]map[domain.PermissionKey]bool),
		playerGroups:    make(map[domain.PlayerID]string),
		playerRoles:     make(map[domain.PlayerID]domain.RoleLevel),
	}
}

// Has resolves the effective value of key for the player: a per-player
// override wins, then the player's group override, then the role default.
// Unknown keys are always false.
func (r *Resolver) Has(player domain.PlayerID, key domain.PermissionKey) bool {
	if !domain.ValidPermissionKey(key) {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if perms, ok := r.playerOverrides[player]; ok {
		if v, ok := perms[key]; ok {
			return v
		}
	}

	if group, ok := r.playerGroups[player]; ok {
		if perms, ok := r.groupOverrides[group]; ok {
			if v, ok := perms[key]; ok {
				return v
			}
		}
	}

	role := r.playerRoles[player] // zero value is RolePlayer
	return r.roleDefaults[role][key]
}

// Require returns an UnauthorizedError if the player lacks the permission.
func (r *Resolver) Require(player domain.PlayerID, key domain.PermissionKey) error {
	if !r.Has(player, key) {
		return &domain.UnauthorizedError{Key: key}
	}
	return nil
}

// Effective returns the resolved value of every permission key for the
// player.
func (r *Resolver) Effective(player domain.PlayerID) map[domain.PermissionKey]bool {
	out := make(map[domain.PermissionKey]bool, len(domain.PermissionKeys))
	for _, key := range domain.PermissionKeys {
		out[key] = r.Has(player, key)
	}
	return out
}

// SetRole assigns the player's role. Players without an assignment resolve
// as RolePlayer.
func (r *Resolver) SetRole(player domain.PlayerID, role domain.RoleLevel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if role == domain.RolePlayer {
		delete(r.playerRoles, player)
		return
	}
	r.playerRoles[player] = role
}

// Role returns the player's assigned role.
func (r *Resolver) Role(player domain.PlayerID) domain.RoleLevel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.playerRoles[player]
}

// AssignGroup puts the player in a permission group. An empty group name
// clears the assignment.
func (r *Resolver) AssignGroup(player domain.PlayerID, group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if group == "" {
		delete(r.playerGroups, player)
		return
	}
	r.playerGroups[player] = group
}

// SetPlayerOverride pins a permission value for one player.
func (r *Resolver) SetPlayerOverride(player domain.PlayerID, key domain.PermissionKey, value bool) error {
	if !domain.ValidPermissionKey(key) {
		return fmt.Errorf("%w: unknown permission key %q", domain.ErrInvariant, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	perms, ok := r.playerOverrides[player]
	if !ok {
		perms = make(map[domain.PermissionKey]bool)
		r.playerOverrides[player] = perms
	}
	perms[key] = value
	return nil
}

// ClearPlayerOverrides removes all per-player overrides, restoring group and
// role resolution.
func (r *Resolver) ClearPlayerOverrides(player domain.PlayerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.playerOverrides, player)
}

// SetGroupOverride pins a permission value for every member of a group.
func (r *Resolver) SetGroupOverride(group string, key domain.PermissionKey, value bool) error {
	if group == "" {
		return &domain.InvariantError{Reason: "group name is empty"}
	}
	if !domain.ValidPermissionKey(key) {
		return fmt.Errorf("%w: unknown permission key %q", domain.ErrInvariant, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	perms, ok := r.groupOverrides[group]
	if !ok {
		perms = make(map[domain.PermissionKey]bool)
		r.groupOverrides[group] = perms
	}
	perms[key] = value
	return nil
}

// ClearGroupOverrides removes all overrides for a group.
func (r *Resolver) ClearGroupOverrides(group string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groupOverrides, group)
}

// SetRoleDefault changes a single role default in place.
func (r *Resolver) SetRoleDefault(role domain.RoleLevel, key domain.PermissionKey, value bool) error {
	if !domain.ValidPermissionKey(key) {
		return fmt.Errorf("%w: unknown permission key %q", domain.ErrInvariant, key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	defaults, ok := r.roleDefaults[role]
	if !ok {
		return fmt.Errorf("%w: unknown role %v", domain.ErrInvariant, role)
	}
	defaults[key] = value
	return nil
}

// ReloadDefaults replaces the role default tables wholesale. Player and
// group overrides survive the reload untouched. Missing roles keep their
// builtin defaults; unknown keys in the input are rejected.
func (r *Resolver) ReloadDefaults(defaults map[domain.RoleLevel]map[domain.PermissionKey]bool) error {
	fresh := defaultRoleTable()
	for role, perms := range defaults {
		if _, ok := fresh[role]; !ok {
			return fmt.Errorf("%w: unknown role %v", domain.ErrInvariant, role)
		}
		for key, value := range perms {
			if !domain.ValidPermissionKey(key) {
				return fmt.Errorf("%w: unknown permission key %q", domain.ErrInvariant, key)
			}
			fresh[role][key] = value
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.roleDefaults = fresh
	return nil
}
