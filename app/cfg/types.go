package cfg

type Cfg struct {
	// Forum service configuration
	ForumURL      string
	ForumUsername string
	ForumPassword string
	PollInterval  int

	// Discord configuration
	DiscordToken  string
	NotifyChannel string
	KeyChannel    string

	// Key scanner configuration
	ProbeURL           string
	RevalidateInterval int
	PatternsFile       string

	// Pipeline configuration
	MaxAttempts int

	// Storage configuration
	DBPath string

	// HTTP server configuration
	Port         string
	APIAccessKey string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
