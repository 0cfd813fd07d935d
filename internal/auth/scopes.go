package auth

// Known OAuth scopes used by the API.
const (
	ScopeSessionsWrite    = "sessions:write"
	ScopeSessionsRead     = "sessions:read"
	ScopeLeaderboardRead  = "leaderboard:read"
	ScopeLeaderboardWrite = "leaderboard:write"
)
