package cfg

import (
	"cmp"
	"fmt"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Forum service configuration
	ForumURL      string `long:"forum-url" env:"FORUM_URL" default:"https://discussion.developer.riotgames.com/" description:"Base URL of the forum service"`
	ForumUsername string `long:"forum-username" env:"FORUM_USERNAME" description:"Forum API username (required)" required:"true"`
	ForumPassword string `long:"forum-password" env:"FORUM_PASSWORD" description:"Forum API password (required)" required:"true"`
	PollInterval  int    `long:"poll-interval" env:"POLL_INTERVAL" default:"60000" description:"Forum poll interval in milliseconds"`

	// Discord configuration
	DiscordToken  string `long:"discord-token" env:"DISCORD_TOKEN" description:"Discord bot token (required)" required:"true"`
	NotifyChannel string `long:"notify-channel" env:"NOTIFY_CHANNEL" default:"forum-feed" description:"Channel for forum activity notifications"`
	KeyChannel    string `long:"key-channel" env:"KEY_CHANNEL" default:"key-alerts" description:"Channel for leaked key reports"`

	// Key scanner configuration
	ProbeURL           string `long:"probe-url" env:"PROBE_URL" default:"https://na1.api.riotgames.com/lol/platform/v3/champion-rotations" description:"Endpoint used to validate candidate API keys"`
	RevalidateInterval int    `long:"revalidate-interval" env:"REVALIDATE_INTERVAL" default:"60000" description:"Tracked key revalidation interval in milliseconds"`
	PatternsFile       string `long:"patterns-file" env:"PATTERNS_FILE" description:"Optional YAML file with additional key patterns"`

	// Pipeline configuration
	MaxAttempts int `long:"max-attempts" env:"MAX_ATTEMPTS" default:"3" description:"Total processing attempts per activity before giving up"`

	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./forum-sentinel.db" description:"Path to the sqlite database file"`

	// HTTP server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Forum Sentinel/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ForumURL:           raw.ForumURL,
		ForumUsername:      raw.ForumUsername,
		ForumPassword:      raw.ForumPassword,
		PollInterval:       raw.PollInterval,
		DiscordToken:       raw.DiscordToken,
		NotifyChannel:      raw.NotifyChannel,
		KeyChannel:         raw.KeyChannel,
		ProbeURL:           raw.ProbeURL,
		RevalidateInterval: raw.RevalidateInterval,
		PatternsFile:       raw.PatternsFile,
		MaxAttempts:        raw.MaxAttempts,
		DBPath:             raw.DBPath,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		UserAgent:          raw.UserAgent,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}
