package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/prodx0x/minderlink/internal/directory"
)

const (
	maxActionItems = 12

	defaultSecret = "661"
)

type Source string

const (
	SourceStatic   Source = "static"
	SourceRest     Source = "rest"
	SourcePostgres Source = "postgres"
)

type Runtime struct {
	ConfigFile string

	Source      Source
	StoreURL    string
	StoreKey    string
	DatabaseDSN string

	Access                 directory.AccessPolicy
	DefaultMaxParticipants int
	// Language is the display language of session descriptions: fr or en.
	Language string

	Lookahead time.Duration
	MaxItems  int
	Timeout   time.Duration

	StateDir     string
	MenuDir      string
	MenuPath     string
	ItemsPath    string
	SnapshotPath string
	FiltersPath  string

	LogLevel  string
	LogFormat string
}

func Load() (Runtime, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Runtime{}, fmt.Errorf("resolve home dir: %w", err)
	}

	xdgConfig := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	xdgState := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}

	configFile := strings.TrimSpace(os.Getenv("MINDERLINK_CONFIG_FILE"))
	if configFile == "" {
		configFile = filepath.Join(xdgConfig, "minderlink", "minderlink.env")
	}

	if err := loadEnvFile(configFile); err != nil {
		return Runtime{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("MINDERLINK")
	v.AutomaticEnv()

	_ = v.BindEnv("source", "MINDERLINK_SOURCE")
	_ = v.BindEnv("store_url", "MINDERLINK_STORE_URL", "SUPABASE_URL")
	_ = v.BindEnv("store_key", "MINDERLINK_STORE_KEY", "SUPABASE_ANON_KEY")
	_ = v.BindEnv("database_dsn", "MINDERLINK_DATABASE_DSN", "DATABASE_URL")
	_ = v.BindEnv("meeting_secret", "MINDERLINK_MEETING_SECRET")
	_ = v.BindEnv("vip_secret", "MINDERLINK_VIP_SECRET")
	_ = v.BindEnv("default_max_participants", "MINDERLINK_DEFAULT_MAX_PARTICIPANTS")
	_ = v.BindEnv("language", "MINDERLINK_LANGUAGE")
	_ = v.BindEnv("lookahead_minutes", "MINDERLINK_LOOKAHEAD_MINUTES")
	_ = v.BindEnv("max_items", "MINDERLINK_MAX_ITEMS")
	_ = v.BindEnv("timeout_seconds", "MINDERLINK_TIMEOUT_SECONDS")
	_ = v.BindEnv("state_dir", "MINDERLINK_STATE_DIR")
	_ = v.BindEnv("menu_dir", "MINDERLINK_MENU_DIR")
	_ = v.BindEnv("log_level", "MINDERLINK_LOG_LEVEL")
	_ = v.BindEnv("log_format", "MINDERLINK_LOG_FORMAT")

	v.SetDefault("source", string(SourceStatic))
	v.SetDefault("meeting_secret", defaultSecret)
	v.SetDefault("vip_secret", defaultSecret)
	v.SetDefault("default_max_participants", directory.DefaultMaxParticipants)
	v.SetDefault("language", directory.DefaultLanguage)
	v.SetDefault("lookahead_minutes", 60)
	v.SetDefault("max_items", 8)
	v.SetDefault("timeout_seconds", 20)
	v.SetDefault("state_dir", filepath.Join(xdgState, "minderlink"))
	v.SetDefault("menu_dir", filepath.Join(xdgState, "waybar", "menus"))
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "console")

	source := Source(strings.ToLower(strings.TrimSpace(v.GetString("source"))))
	switch source {
	case SourceStatic, SourceRest, SourcePostgres:
	default:
		return Runtime{}, fmt.Errorf("unsupported source %q", source)
	}

	storeURL := strings.TrimRight(strings.TrimSpace(v.GetString("store_url")), "/")
	if source == SourceRest && storeURL == "" {
		return Runtime{}, fmt.Errorf("source rest requires MINDERLINK_STORE_URL")
	}

	databaseDSN := strings.TrimSpace(v.GetString("database_dsn"))
	if source == SourcePostgres && databaseDSN == "" {
		return Runtime{}, fmt.Errorf("source postgres requires MINDERLINK_DATABASE_DSN")
	}

	language := strings.ToLower(strings.TrimSpace(v.GetString("language")))
	switch language {
	case "fr", "en":
	case "":
		language = directory.DefaultLanguage
	default:
		return Runtime{}, fmt.Errorf("unsupported language %q (want fr or en)", language)
	}

	maxItems := v.GetInt("max_items")
	if maxItems < 1 {
		maxItems = 1
	}
	if maxItems > maxActionItems {
		maxItems = maxActionItems
	}

	timeoutSeconds := v.GetInt("timeout_seconds")
	if timeoutSeconds <= 0 {
		timeoutSeconds = 20
	}

	lookaheadMinutes := v.GetInt("lookahead_minutes")
	if lookaheadMinutes < 0 {
		lookaheadMinutes = 0
	}

	maxParticipants := v.GetInt("default_max_participants")
	if maxParticipants <= 0 {
		maxParticipants = directory.DefaultMaxParticipants
	}

	stateDir := strings.TrimSpace(v.GetString("state_dir"))
	if stateDir == "" {
		stateDir = filepath.Join(xdgState, "minderlink")
	}

	menuDir := strings.TrimSpace(v.GetString("menu_dir"))
	if menuDir == "" {
		menuDir = filepath.Join(xdgState, "waybar", "menus")
	}

	// Secrets are compared verbatim, so they are not trimmed.
	return Runtime{
		ConfigFile:  configFile,
		Source:      source,
		StoreURL:    storeURL,
		StoreKey:    strings.TrimSpace(v.GetString("store_key")),
		DatabaseDSN: databaseDSN,
		Access: directory.AccessPolicy{
			MeetingSecret: v.GetString("meeting_secret"),
			VIPSecret:     v.GetString("vip_secret"),
		},
		DefaultMaxParticipants: maxParticipants,
		Language:               language,
		Lookahead:              time.Duration(lookaheadMinutes) * time.Minute,
		MaxItems:               maxItems,
		Timeout:                time.Duration(timeoutSeconds) * time.Second,
		StateDir:               stateDir,
		MenuDir:                menuDir,
		MenuPath:               filepath.Join(menuDir, "minderlink.xml"),
		ItemsPath:              filepath.Join(stateDir, "upcoming.json"),
		SnapshotPath:           filepath.Join(stateDir, "rows.json"),
		FiltersPath:            filepath.Join(stateDir, "filters.json"),
		LogLevel:               strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		LogFormat:              strings.ToLower(strings.TrimSpace(v.GetString("log_format"))),
	}, nil
}

func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimLeft(strings.TrimSuffix(scanner.Text(), "\r"), " \t")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimLeft(strings.TrimPrefix(line, "export "), " \t")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		// Access codes are compared verbatim, spaces included.
		if !strings.HasSuffix(key, "_SECRET") {
			value = strings.TrimSpace(value)
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, unquote(value))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan env file %s: %w", path, err)
	}
	return nil
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first, last := value[0], value[len(value)-1]
	if (first == '\'' || first == '"') && first == last {
		return value[1 : len(value)-1]
	}
	return value
}
