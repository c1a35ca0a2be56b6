package apipaths

// Remote backend paths consumed by the api client. Auth paths have no trailing slash; the word
// and story collections do, matching the backend's route declarations.

const (
	AuthLogin  = "/auth/login"
	AuthGoogle = "/auth/google"
	AuthSignup = "/auth/signup"
	AuthMe     = "/auth/me"

	DailyWords   = "/daily-words/"
	EnglishLevel = "/users/english-level"
	WordsGen     = "/words/generate"
	Stories      = "/stories/"
)

// Local console paths served by internal/http.
const (
	Health         = "/api/health"
	Session        = "/api/session"
	SessionLogin   = "/api/session/login"
	SessionGoogle  = "/api/session/google"
	SessionSignup  = "/api/session/signup"
	SessionLogout  = "/api/session/logout"
	SessionMe      = "/api/session/me"
	ConsoleWords   = "/api/words/daily"
	ConsoleLevel   = "/api/words/level"
	ConsoleGen     = "/api/words/generate"
	ConsoleStories = "/api/stories"
)
