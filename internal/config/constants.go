package config

const (
	// Configuration file paths
	ConfigPathRecipeTree  = "configs/recipe_tree.json"
	ConfigPathPermissions = "configs/permissions.json"
)
