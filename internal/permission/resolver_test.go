package permission

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

const alice = domain.PlayerID("alice")

func TestRoleDefaults_Player(t *testing.T) {
	r := NewResolver()

	assert.True(t, r.Has(alice, domain.PermOpenInterface))
	assert.True(t, r.Has(alice, domain.PermLearnRecipes))
	assert.False(t, r.Has(alice, domain.PermResetTabs))
	assert.False(t, r.Has(alice, domain.PermManageRecipes))
	assert.False(t, r.Has(alice, domain.PermManageTabs))
	assert.False(t, r.Has(alice, domain.PermManagePermissions))
	assert.False(t, r.Has(alice, domain.PermGivePoints))
}

func TestRoleDefaults_Operator(t *testing.T) {
	r := NewResolver()
	r.SetRole(alice, domain.RoleOperator)

	granted := map[domain.PermissionKey]bool{
		domain.PermOpenInterface: true,
		domain.PermLearnRecipes:  true,
		domain.PermResetTabs:     true,
		domain.PermManageRecipes: true,
		domain.PermManageTabs:    true,
		domain.PermGivePoints:    true,
	}
	for _, key := range domain.PermissionKeys {
		assert.Equal(t, granted[key], r.Has(alice, key), "key %s", key)
	}

	// moderation only: no engine settings, recipe creation, or permission
	// administration
	assert.False(t, r.Has(alice, domain.PermAdminSettings))
	assert.False(t, r.Has(alice, domain.PermCreateRecipes))
	assert.False(t, r.Has(alice, domain.PermManagePermissions))
}

func TestRoleDefaults_Admin(t *testing.T) {
	r := NewResolver()
	r.SetRole(alice, domain.RoleAdmin)

	for _, key := range domain.PermissionKeys {
		assert.True(t, r.Has(alice, key), "key %s", key)
	}
}

func TestHas_UnknownKeyIsFalse(t *testing.T) {
	r := NewResolver()
	r.SetRole(alice, domain.RoleAdmin)
	assert.False(t, r.Has(alice, domain.PermissionKey("fly")))
}

func TestCascade_PlayerOverrideBeatsGroupAndRole(t *testing.T) {
	r := NewResolver()
	r.AssignGroup(alice, "builders")
	require.NoError(t, r.SetGroupOverride("builders", domain.PermManageTabs, true))
	require.NoError(t, r.SetPlayerOverride(alice, domain.PermManageTabs, false))

	assert.False(t, r.Has(alice, domain.PermManageTabs))

	r.ClearPlayerOverrides(alice)
	assert.True(t, r.Has(alice, domain.PermManageTabs))
}

func TestCascade_GroupOverrideBeatsRoleDefault(t *testing.T) {
	r := NewResolver()
	r.AssignGroup(alice, "moderators")
	require.NoError(t, r.SetGroupOverride("moderators", domain.PermResetTabs, true))

	assert.True(t, r.Has(alice, domain.PermResetTabs))

	// Group override can also revoke what the role grants.
	r.SetRole(alice, domain.RoleOperator)
	require.NoError(t, r.SetGroupOverride("moderators", domain.PermManageRecipes, false))
	assert.False(t, r.Has(alice, domain.PermManageRecipes))
}

func TestCascade_LeavingGroupRestoresRoleDefault(t *testing.T) {
	r := NewResolver()
	r.AssignGroup(alice, "vips")
	require.NoError(t, r.SetGroupOverride("vips", domain.PermGivePoints, true))
	require.True(t, r.Has(alice, domain.PermGivePoints))

	r.AssignGroup(alice, "")
	assert.False(t, r.Has(alice, domain.PermGivePoints))
}

func TestRequire_ReturnsUnauthorizedError(t *testing.T) {
	r := NewResolver()

	err := r.Require(alice, domain.PermManagePermissions)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	var authErr *domain.UnauthorizedError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, domain.PermManagePermissions, authErr.Key)

	assert.NoError(t, r.Require(alice, domain.PermOpenInterface))
}

func TestReloadDefaults_PreservesOverrides(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.SetPlayerOverride(alice, domain.PermResetTabs, true))

	err := r.ReloadDefaults(map[domain.RoleLevel]map[domain.PermissionKey]bool{
		domain.RolePlayer: {domain.PermLearnRecipes: false},
	})
	require.NoError(t, err)

	// New default applies...
	assert.False(t, r.Has("bob", domain.PermLearnRecipes))
	// ...but the player override survives.
	assert.True(t, r.Has(alice, domain.PermResetTabs))
}

func TestReloadDefaults_RejectsUnknownKey(t *testing.T) {
	r := NewResolver()
	err := r.ReloadDefaults(map[domain.RoleLevel]map[domain.PermissionKey]bool{
		domain.RolePlayer: {domain.PermissionKey("teleport"): true},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestSetRoleDefault_InPlace(t *testing.T) {
	r := NewResolver()
	require.NoError(t, r.SetRoleDefault(domain.RolePlayer, domain.PermResetTabs, true))
	assert.True(t, r.Has(alice, domain.PermResetTabs))
}

func TestEffective_FullMatrix(t *testing.T) {
	r := NewResolver()
	r.SetRole(alice, domain.RoleOperator)
	for _, key := range []domain.PermissionKey{
		domain.PermManagePermissions,
		domain.PermAdminSettings,
		domain.PermCreateRecipes,
	} {
		require.NoError(t, r.SetPlayerOverride(alice, key, true))
	}

	effective := r.Effective(alice)
	assert.Len(t, effective, len(domain.PermissionKeys))
	for _, key := range domain.PermissionKeys {
		assert.True(t, effective[key], "key %s", key)
	}
}
