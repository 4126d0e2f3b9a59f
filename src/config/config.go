package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	AltConfigEnvVar    = "SCREEN_CAPTURE_OVERLAY"
	WindowPolicyEnvVar = "WINDOW_POLICY"
	SurfaceEnvVar      = "SURFACE"

	PolicyReuse    = "reuse"
	PolicyRecreate = "recreate"

	SurfaceCanvas = "canvas"
	SurfaceRemote = "remote"

	DefaultHotkey       = "Ctrl+Alt+A"
	DefaultSurfacePort  = 49560
	DefaultResetTimeout = 500 * time.Millisecond
	DefaultSaveDebounce = 200 * time.Millisecond
)

type LoadOptions struct {
	WindowPolicyOverride string
	SurfaceOverride      string
}

type Config struct {
	EnableFileLogging bool
	Hotkey            string
	WindowPolicy      string
	ResetTimeout      time.Duration
	SaveDebounce      time.Duration
	ReadyTimeout      time.Duration // 0 waits for the surface indefinitely
	Surface           string
	SurfacePort       int
	LangFile          string
	SaveDir           string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_CAPTURE_OVERLAY env var as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		Hotkey:            getEnvWithDefault("HOTKEY", DefaultHotkey),
		WindowPolicy:      resolveWindowPolicyValue(opts, dotenvValues),
		ResetTimeout:      durationFromEnv("RESET_TIMEOUT_MS", time.Millisecond, DefaultResetTimeout),
		SaveDebounce:      durationFromEnv("SAVE_DEBOUNCE_MS", time.Millisecond, DefaultSaveDebounce),
		ReadyTimeout:      durationFromEnv("READY_TIMEOUT_SEC", time.Second, 0),
		Surface:           resolveSurfaceValue(opts),
		SurfacePort:       intFromEnv("SURFACE_PORT", DefaultSurfacePort),
		LangFile:          strings.TrimSpace(os.Getenv("LANG_FILE")),
		SaveDir:           strings.TrimSpace(os.Getenv("SAVE_DIR")),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(AltConfigEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intFromEnv(key string, defaultValue int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}

// durationFromEnv reads a whole number of units; negative or malformed values keep the default.
func durationFromEnv(key string, unit, defaultValue time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return time.Duration(n) * unit
		}
	}
	return defaultValue
}

func resolveWindowPolicy(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case PolicyReuse, "single":
		return PolicyReuse
	default:
		return PolicyRecreate
	}
}

// resolveWindowPolicyValue prefers the CLI override, then the .env file, then the process environment.
func resolveWindowPolicyValue(opts LoadOptions, dotenvValues map[string]string) string {
	if override := strings.TrimSpace(opts.WindowPolicyOverride); override != "" {
		return resolveWindowPolicy(override)
	}
	if v := strings.TrimSpace(dotenvValues[WindowPolicyEnvVar]); v != "" {
		return resolveWindowPolicy(v)
	}
	return resolveWindowPolicy(os.Getenv(WindowPolicyEnvVar))
}

func resolveSurface(value string) string {
	if strings.ToLower(strings.TrimSpace(value)) == SurfaceRemote {
		return SurfaceRemote
	}
	return SurfaceCanvas
}

func resolveSurfaceValue(opts LoadOptions) string {
	if override := strings.TrimSpace(opts.SurfaceOverride); override != "" {
		return resolveSurface(override)
	}
	return resolveSurface(os.Getenv(SurfaceEnvVar))
}
