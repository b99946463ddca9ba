package handler

// Generic HTTP error messages for client responses.
// These intentionally do not expose internal error details.
const (
	ErrMsgInvalidRequest    = "Invalid request body"
	ErrMsgMissingQueryParam = "Missing %s query parameter"

	// Study/reset error messages
	ErrMsgStudyNodeFailed = "Failed to study node"
	ErrMsgStudyTabFailed  = "Failed to study tab"
	ErrMsgResetNodeFailed = "Failed to reset node"
	ErrMsgResetTabFailed  = "Failed to reset tab"

	// Query error messages
	ErrMsgGetTabsFailed     = "Failed to retrieve tabs"
	ErrMsgGetNodesFailed    = "Failed to retrieve nodes"
	ErrMsgGetPlayerFailed   = "Failed to retrieve player state"
	ErrMsgCraftCheckFailed  = "Failed to check craft access"
	ErrMsgReportExpFailed   = "Failed to record experience"

	// Admin error messages
	ErrMsgPointsOpFailed      = "Failed to apply points operation"
	ErrMsgForceStudyFailed    = "Failed to force study"
	ErrMsgResetPlayerFailed   = "Failed to reset player"
	ErrMsgSetExperienceFailed = "Failed to set experience"
	ErrMsgTreeEditFailed      = "Failed to edit recipe tree"
	ErrMsgReloadTreeFailed    = "Failed to reload recipe tree"
	ErrMsgPermissionOpFailed  = "Failed to apply permission change"
)

// Success messages for API responses
const (
	MsgNodeStudiedSuccess  = "Node studied successfully"
	MsgTabStudiedSuccess   = "Tab studied successfully"
	MsgNodeResetSuccess    = "Node reset successfully"
	MsgTabResetSuccess     = "Tab reset successfully"
	MsgAlreadyStudied      = "Already studied"
	MsgNothingToReset      = "Nothing to reset"
	MsgPointsApplied       = "Points updated successfully"
	MsgPlayerResetSuccess  = "Player reset successfully"
	MsgExperienceRecorded  = "Experience recorded successfully"
	MsgExperienceUpdated   = "Experience updated successfully"
	MsgTreeUpdatedSuccess  = "Recipe tree updated successfully"
	MsgTreeReloadedSuccess = "Recipe tree reloaded successfully"
	MsgPermissionUpdated   = "Permissions updated successfully"
)
