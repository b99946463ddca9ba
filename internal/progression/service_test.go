package progression

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/configstore"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/event"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/experience"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/permission"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/testing/leaktest"
)

const testTree = `{
  "version": "1",
  "tabs": [
    {"id": "magic", "title": "Magic", "cost": 5, "reset_cost": 2},
    {"id": "tech", "title": "Tech", "cost": 5, "reset_cost": 2, "blocks_tabs": ["magic"]},
    {"id": "master", "title": "Master", "cost": 10, "required_tabs": ["magic"], "required_nodes": ["wand"]}
  ],
  "nodes": [
    {"id": "stick", "tab": "default", "recipe_id": "minecraft:stick", "study_cost": 1, "reset_cost": 1, "grants_craft_access": true},
    {"id": "wand", "tab": "magic", "recipe_id": "magic:wand", "study_cost": 3, "reset_cost": 2, "prerequisites": ["stick"], "grants_craft_access": true},
    {"id": "robot", "tab": "tech", "recipe_id": "tech:robot", "study_cost": 3, "grants_craft_access": true}
  ]
}`

const (
	admin = domain.PlayerID("console")
	steve = domain.PlayerID("steve")
	alex  = domain.PlayerID("alex")
)

type testEnv struct {
	svc      Service
	resolver *permission.Resolver
	cfg      *configstore.Store
	bus      *event.MemoryBus
	store    *MemoryStore
	ctx      context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe_tree.json")
	require.NoError(t, os.WriteFile(path, []byte(testTree), 0644))

	bus := event.NewMemoryBus()
	cfg, err := configstore.New(path, false, bus)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, cfg.Load(ctx))

	resolver := permission.NewResolver()
	resolver.SetRole(admin, domain.RoleAdmin)

	store := NewMemoryStore()
	xp := experience.NewLedger(experience.NewCurve())
	svc := NewService(store, cfg, resolver, xp, bus)

	return &testEnv{svc: svc, resolver: resolver, cfg: cfg, bus: bus, store: store, ctx: ctx}
}

// fund credits currencies through the admin surface so tests never reach
// into service internals.
func (e *testEnv) fund(t *testing.T, player domain.PlayerID, pt domain.PointsType, amount int) {
	t.Helper()
	require.NoError(t, e.svc.GrantPoints(e.ctx, admin, player, pt, amount))
}

func (e *testEnv) balance(t *testing.T, player domain.PlayerID, pt domain.PointsType) int {
	t.Helper()
	snap, err := e.svc.PlayerSnapshot(e.ctx, player)
	require.NoError(t, err)
	return snap.Experience.PointsByType[pt]
}

func TestStudyNode_DebitsAndUnlocks(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)

	res, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.Cost)
	assert.Equal(t, 9, e.balance(t, steve, domain.PointsLearning))

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.Contains(t, snap.StudiedNodes, "stick")
}

func TestStudyNode_IdempotentNoSecondDebit(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)

	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)

	res, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.True(t, res.AlreadyStudied)
	assert.Equal(t, 9, e.balance(t, steve, domain.PointsLearning))
}

func TestStudyNode_UnmetPrerequisite(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	e.fund(t, steve, domain.PointsSpecial, 10)
	_, err := e.svc.StudyTab(e.ctx, steve, "magic")
	require.NoError(t, err)

	// wand requires stick, which is not studied
	_, err = e.svc.StudyNode(e.ctx, steve, "wand")
	require.Error(t, err)
	var prereq *domain.PrerequisiteError
	require.True(t, errors.As(err, &prereq))
	assert.Equal(t, "wand", prereq.Target)
	assert.Equal(t, 10, e.balance(t, steve, domain.PointsLearning))
}

func TestStudyNode_TabNotStudied(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)

	_, err := e.svc.StudyNode(e.ctx, steve, "robot")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPrerequisiteUnmet))
}

func TestStudyNode_InsufficientFundsLeavesStateUntouched(t *testing.T) {
	e := newTestEnv(t)
	// nothing funded

	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.Error(t, err)
	var funds *domain.InsufficientFundsError
	require.True(t, errors.As(err, &funds))
	assert.Equal(t, domain.PointsLearning, funds.Currency)

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.NotContains(t, snap.StudiedNodes, "stick")
}

func TestStudyNode_UnknownNode(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.StudyNode(e.ctx, steve, "ghost")
	assert.True(t, errors.Is(err, domain.ErrNodeNotFound))
}

func TestStudyNode_Unauthorized(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	require.NoError(t, e.resolver.SetPlayerOverride(steve, domain.PermLearnRecipes, false))

	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.Error(t, err)
	var unauthorized *domain.UnauthorizedError
	require.True(t, errors.As(err, &unauthorized))
	assert.Equal(t, domain.PermLearnRecipes, unauthorized.Key)
	assert.Equal(t, 10, e.balance(t, steve, domain.PointsLearning))
}

func TestStudyTab_MutualExclusionForceResetsWithoutCharge(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	e.fund(t, steve, domain.PointsSpecial, 20)

	_, err := e.svc.StudyTab(e.ctx, steve, "magic")
	require.NoError(t, err)
	_, err = e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	_, err = e.svc.StudyNode(e.ctx, steve, "wand")
	require.NoError(t, err)

	res, err := e.svc.StudyTab(e.ctx, steve, "tech")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, []string{"magic"}, res.BlockedTabs)

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.NotContains(t, snap.StudiedTabs, "magic")
	assert.Contains(t, snap.StudiedTabs, "tech")
	// wand went with its tab, stick lives in the default tab and stays
	assert.NotContains(t, snap.StudiedNodes, "wand")
	assert.Contains(t, snap.StudiedNodes, "stick")
	// only tech's study cost was charged, never magic's reset cost
	assert.Equal(t, 10, e.balance(t, steve, domain.PointsSpecial))
	assert.Equal(t, 0, e.balance(t, steve, domain.PointsResetSpecial))
}

func TestStudyTab_RequiredNodesGate(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsSpecial, 50)

	_, err := e.svc.StudyTab(e.ctx, steve, "master")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPrerequisiteUnmet))

	e.fund(t, steve, domain.PointsLearning, 10)
	_, err = e.svc.StudyTab(e.ctx, steve, "magic")
	require.NoError(t, err)
	_, err = e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	_, err = e.svc.StudyNode(e.ctx, steve, "wand")
	require.NoError(t, err)

	res, err := e.svc.StudyTab(e.ctx, steve, "master")
	require.NoError(t, err)
	assert.True(t, res.Applied)
}

func TestStudyTab_DefaultIsANoOp(t *testing.T) {
	e := newTestEnv(t)
	res, err := e.svc.StudyTab(e.ctx, steve, "default")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.True(t, res.AlreadyStudied)

	// aliases resolve to the same tab
	res, err = e.svc.StudyTab(e.ctx, steve, "vanilla")
	require.NoError(t, err)
	assert.True(t, res.AlreadyStudied)
}

func TestResetNode_RefundsNothingAndCharges(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	e.fund(t, steve, domain.PointsResetRecipes, 5)
	e.resolver.SetRole(steve, domain.RoleOperator) // reset_tabs
	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)

	res, err := e.svc.ResetNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 1, res.Cost)
	assert.Equal(t, 4, e.balance(t, steve, domain.PointsResetRecipes))
	// study cost was not refunded
	assert.Equal(t, 9, e.balance(t, steve, domain.PointsLearning))
}

func TestResetNode_RequiresPermission(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	e.fund(t, steve, domain.PointsResetRecipes, 5)
	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)

	_, err = e.svc.ResetNode(e.ctx, steve, "stick")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.Contains(t, snap.StudiedNodes, "stick")
	assert.Equal(t, 5, e.balance(t, steve, domain.PointsResetRecipes))
}

func TestResetNode_UnstudiedIsNoOp(t *testing.T) {
	e := newTestEnv(t)
	res, err := e.svc.ResetNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, 0, e.balance(t, steve, domain.PointsResetRecipes))
}

func TestResetTab_RemovesMemberNodes(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	e.fund(t, steve, domain.PointsSpecial, 10)
	e.fund(t, steve, domain.PointsResetSpecial, 5)
	e.resolver.SetRole(steve, domain.RoleOperator) // reset_tabs

	_, err := e.svc.StudyTab(e.ctx, steve, "magic")
	require.NoError(t, err)
	_, err = e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	_, err = e.svc.StudyNode(e.ctx, steve, "wand")
	require.NoError(t, err)

	res, err := e.svc.ResetTab(e.ctx, steve, "magic")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 3, e.balance(t, steve, domain.PointsResetSpecial))

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.NotContains(t, snap.StudiedTabs, "magic")
	assert.NotContains(t, snap.StudiedNodes, "wand")
	assert.Contains(t, snap.StudiedNodes, "stick")
}

func TestResetTab_DefaultRejected(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.ResetTab(e.ctx, steve, "default")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestResetTab_RequiresPermission(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsSpecial, 10)
	e.fund(t, steve, domain.PointsLearning, 10)
	_, err := e.svc.StudyTab(e.ctx, steve, "magic")
	require.NoError(t, err)

	_, err = e.svc.ResetTab(e.ctx, steve, "magic")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCanUseRecipe_GatingAndInvalidation(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)

	// ungated recipes are always craftable
	ok, err := e.svc.CanUseRecipe(e.ctx, steve, "minecraft:dirt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.svc.CanUseRecipe(e.ctx, steve, "minecraft:stick")
	require.NoError(t, err)
	assert.False(t, ok)

	// studying flips the answer despite the cache
	_, err = e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	ok, err = e.svc.CanUseRecipe(e.ctx, steve, "minecraft:stick")
	require.NoError(t, err)
	assert.True(t, ok)

	// resetting flips it back
	e.fund(t, steve, domain.PointsResetRecipes, 5)
	e.resolver.SetRole(steve, domain.RoleOperator) // reset_tabs
	_, err = e.svc.ResetNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	ok, err = e.svc.CanUseRecipe(e.ctx, steve, "minecraft:stick")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanUseRecipe_EmptyRecipeRejected(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.CanUseRecipe(e.ctx, steve, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestReportExperience_ConvertsAndLevels(t *testing.T) {
	e := newTestEnv(t)

	// 200 player-kill XP at rate 1.0 crosses the thresholds for levels
	// 2 through 5 (115, 132, 152, 175)
	res, err := e.svc.ReportExperience(e.ctx, steve, domain.ExperiencePlayerKill, 200)
	require.NoError(t, err)
	assert.Equal(t, 1, res.OldLevel)
	assert.Equal(t, 5, res.NewLevel)
	require.Len(t, res.LevelUps, 4)
	assert.Equal(t, 200, res.LearningPoints)

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Experience.Level)
	assert.Equal(t, 200, snap.Experience.PointsByType[domain.PointsLearning])
	assert.Positive(t, snap.Experience.PointsByType[domain.PointsLevelUp])
}

func TestReportExperience_MiningTruncatesConversion(t *testing.T) {
	e := newTestEnv(t)

	// 19 mining XP at rate 0.1 converts to 1 learning point, truncated
	res, err := e.svc.ReportExperience(e.ctx, steve, domain.ExperienceBlockMining, 19)
	require.NoError(t, err)
	assert.Equal(t, 1, res.LearningPoints)
}

func TestReportExperience_RejectsNegative(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.ReportExperience(e.ctx, steve, domain.ExperienceCrafting, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestReportExperience_ZeroIsANoOp(t *testing.T) {
	e := newTestEnv(t)
	res, err := e.svc.ReportExperience(e.ctx, steve, domain.ExperienceCrafting, 0)
	require.NoError(t, err)
	assert.Empty(t, res.LevelUps)
	assert.Equal(t, 0, res.LearningPoints)
	assert.Equal(t, 0, e.balance(t, steve, domain.PointsLearning))
}

func TestAvailableTabs_StatesAndReasons(t *testing.T) {
	e := newTestEnv(t)
	tabs, err := e.svc.AvailableTabs(e.ctx, steve)
	require.NoError(t, err)
	require.Len(t, tabs, 4)

	byID := make(map[string]domain.TabStatus, len(tabs))
	for _, ts := range tabs {
		byID[ts.Tab.ID] = ts
	}
	assert.True(t, byID[domain.DefaultTabID].Studied)
	assert.Equal(t, domain.StateAvailable, byID["magic"].State)
	assert.Equal(t, domain.StateLocked, byID["master"].State)
	assert.NotEmpty(t, byID["master"].Reasons)
}

func TestAvailableNodes_UnknownTab(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.AvailableNodes(e.ctx, steve, "ghost")
	assert.True(t, errors.Is(err, domain.ErrTabNotFound))
}

func TestGrantTakeSetPoints_AdminOnly(t *testing.T) {
	e := newTestEnv(t)

	err := e.svc.GrantPoints(e.ctx, steve, steve, domain.PointsLearning, 100)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	require.NoError(t, e.svc.GrantPoints(e.ctx, admin, steve, domain.PointsLearning, 100))
	assert.Equal(t, 100, e.balance(t, steve, domain.PointsLearning))

	require.NoError(t, e.svc.TakePoints(e.ctx, admin, steve, domain.PointsLearning, 30))
	assert.Equal(t, 70, e.balance(t, steve, domain.PointsLearning))

	err = e.svc.TakePoints(e.ctx, admin, steve, domain.PointsLearning, 1000)
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))
	assert.Equal(t, 70, e.balance(t, steve, domain.PointsLearning))

	require.NoError(t, e.svc.SetPoints(e.ctx, admin, steve, domain.PointsLearning, 5))
	assert.Equal(t, 5, e.balance(t, steve, domain.PointsLearning))
}

func TestGrantPoints_RejectsNonPositive(t *testing.T) {
	e := newTestEnv(t)
	err := e.svc.GrantPoints(e.ctx, admin, steve, domain.PointsLearning, 0)
	assert.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestForceStudy_SkipsChecksButCascades(t *testing.T) {
	e := newTestEnv(t)

	// no funds, no prerequisites: force-study still lands
	res, err := e.svc.ForceStudyNode(e.ctx, admin, steve, "wand")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, 0, res.Cost)

	tabRes, err := e.svc.ForceStudyTab(e.ctx, admin, steve, "magic")
	require.NoError(t, err)
	assert.True(t, tabRes.Applied)

	// forcing the blocking tab still triggers the exclusion cascade
	tabRes, err = e.svc.ForceStudyTab(e.ctx, admin, steve, "tech")
	require.NoError(t, err)
	assert.Equal(t, []string{"magic"}, tabRes.BlockedTabs)

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.NotContains(t, snap.StudiedTabs, "magic")
	assert.NotContains(t, snap.StudiedNodes, "wand")
}

func TestForceStudy_Unauthorized(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.svc.ForceStudyNode(e.ctx, steve, steve, "wand")
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestResetPlayer_WipesEverything(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)
	_, err = e.svc.ReportExperience(e.ctx, steve, domain.ExperiencePlayerKill, 500)
	require.NoError(t, err)

	require.NoError(t, e.svc.ResetPlayer(e.ctx, admin, steve))

	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Experience.Level)
	assert.Zero(t, snap.Experience.TotalExperience)
	assert.Empty(t, snap.StudiedNodes)
	assert.Equal(t, []string{domain.DefaultTabID}, snap.StudiedTabs)
	assert.Zero(t, snap.Experience.PointsByType[domain.PointsLearning])
}

func TestSetLevelAndExperience_AdminBypass(t *testing.T) {
	e := newTestEnv(t)

	require.NoError(t, e.svc.SetLevel(e.ctx, admin, steve, 50))
	snap, err := e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.Experience.Level)
	// bypass: no points awarded
	assert.Zero(t, snap.Experience.PointsByType[domain.PointsLevelUp])

	require.NoError(t, e.svc.SetExperience(e.ctx, admin, steve, domain.ExperiencePlayerKill, 120))
	snap, err = e.svc.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.Equal(t, 120.0, snap.Experience.TotalExperience)
	// level recomputed from totals, no conversion to learning points
	assert.Equal(t, 2, snap.Experience.Level)
	assert.Zero(t, snap.Experience.PointsByType[domain.PointsLearning])

	err = e.svc.SetLevel(e.ctx, admin, steve, 0)
	assert.True(t, errors.Is(err, domain.ErrInvariant))
}

func TestSetMultiplier_AppliesToFutureGainsOnly(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.svc.ReportExperience(e.ctx, steve, domain.ExperienceCrafting, 10)
	require.NoError(t, err)

	require.NoError(t, e.svc.SetExperienceMultiplier(e.ctx, admin, domain.ExperienceCrafting, 2.0))
	res, err := e.svc.ReportExperience(e.ctx, steve, domain.ExperienceCrafting, 10)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.ActualAmount)

	err = e.svc.SetExperienceMultiplier(e.ctx, steve, domain.ExperienceCrafting, 3.0)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestEvents_StudyPublishesTyped(t *testing.T) {
	e := newTestEnv(t)

	var mu sync.Mutex
	var studied []event.NodeStudiedPayloadV1
	e.bus.Subscribe(event.NodeStudied, func(_ context.Context, evt event.Event) error {
		payload, ok := evt.Payload.(event.NodeStudiedPayloadV1)
		require.True(t, ok)
		mu.Lock()
		studied = append(studied, payload)
		mu.Unlock()
		return nil
	})

	e.fund(t, steve, domain.PointsLearning, 10)
	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, studied, 1)
	assert.Equal(t, string(steve), studied[0].PlayerID)
	assert.Equal(t, "stick", studied[0].NodeID)
	assert.False(t, studied[0].Forced)
}

func TestPersistence_StateSurvivesServiceRestart(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)

	// new service over the same store picks up the saved state
	resolver := permission.NewResolver()
	xp := experience.NewLedger(experience.NewCurve())
	revived := NewService(e.store, e.cfg, resolver, xp, event.NewMemoryBus())

	snap, err := revived.PlayerSnapshot(e.ctx, steve)
	require.NoError(t, err)
	assert.Contains(t, snap.StudiedNodes, "stick")
	assert.Equal(t, 9, snap.Experience.PointsByType[domain.PointsLearning])
}

func TestConcurrentDistinctPlayers(t *testing.T) {
	e := newTestEnv(t)
	players := []domain.PlayerID{steve, alex, "carol", "dave"}
	for _, p := range players {
		e.fund(t, p, domain.PointsLearning, 10)
	}

	leaktest.CheckNoGoroutineLeak(t, func() {
		var wg sync.WaitGroup
		for _, p := range players {
			wg.Add(1)
			go func(p domain.PlayerID) {
				defer wg.Done()
				for i := 0; i < 20; i++ {
					_, _ = e.svc.StudyNode(e.ctx, p, "stick")
					_, _ = e.svc.CanUseRecipe(e.ctx, p, "minecraft:stick")
				}
			}(p)
		}
		wg.Wait()
	})

	for _, p := range players {
		// exactly one debit despite 20 attempts
		assert.Equal(t, 9, e.balance(t, p, domain.PointsLearning))
	}
}

// slowStore delays every Load so overlapping first touches of a player race
// through the loader path.
type slowStore struct {
	*MemoryStore
	delay time.Duration
}

func (s *slowStore) Load(ctx context.Context, player domain.PlayerID) (*domain.PlayerState, error) {
	time.Sleep(s.delay)
	return s.MemoryStore.Load(ctx, player)
}

func TestConcurrentFirstTouch_SlowStoreLosesNoUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recipe_tree.json")
	require.NoError(t, os.WriteFile(path, []byte(testTree), 0644))

	bus := event.NewMemoryBus()
	cfg, err := configstore.New(path, false, bus)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, cfg.Load(ctx))

	resolver := permission.NewResolver()
	resolver.SetRole(admin, domain.RoleAdmin)

	store := &slowStore{MemoryStore: NewMemoryStore(), delay: 20 * time.Millisecond}
	svc := NewService(store, cfg, resolver, experience.NewLedger(experience.NewCurve()), bus)

	const grants = 4
	leaktest.CheckNoGoroutineLeak(t, func() {
		var wg sync.WaitGroup
		for i := 0; i < grants; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, svc.GrantPoints(ctx, admin, steve, domain.PointsLearning, 5))
			}()
		}
		wg.Wait()
	})

	snap, err := svc.PlayerSnapshot(ctx, steve)
	require.NoError(t, err)
	assert.Equal(t, grants*5, snap.Experience.PointsByType[domain.PointsLearning])
}

func TestTreeReload_PurgesCraftCache(t *testing.T) {
	e := newTestEnv(t)
	e.fund(t, steve, domain.PointsLearning, 10)
	_, err := e.svc.StudyNode(e.ctx, steve, "stick")
	require.NoError(t, err)

	ok, err := e.svc.CanUseRecipe(e.ctx, steve, "minecraft:stick")
	require.NoError(t, err)
	require.True(t, ok)

	// drop the gating node from the tree; the cached answer must not survive
	require.NoError(t, e.cfg.RemoveNode(e.ctx, "stick"))
	ok, err = e.svc.CanUseRecipe(e.ctx, steve, "minecraft:stick")
	require.NoError(t, err)
	assert.True(t, ok) // now ungated: craftable for everyone
}
