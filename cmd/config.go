package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys. Each is settable by flag, by PLANNER_<KEY> with
// dashes as underscores, or in the config file.
const (
	keyConfig    = "config"
	keyLogLevel  = "log-level"
	keyLogFormat = "log-format"
	keyTimezone  = "timezone"

	keyModelEndpoint    = "model-endpoint"
	keyModelAPIKey      = "model-api-key"
	keyModelName        = "model"
	keyModelTemperature = "model-temperature"
	keyModelMaxTokens   = "model-max-tokens"
	keyModelTimeout     = "model-timeout"

	keyMaxTurns         = "max-turns"
	keyRunTimeout       = "run-timeout"
	keyRescheduleOrder  = "reschedule-order"
	keyRangeConcurrency = "range-concurrency"
	keyRangeRate        = "range-rate"
	keyGuardPolicy      = "guard-policy"
	keyCalendarTimeout  = "calendar-timeout"

	keyAddr            = "addr"
	keyMetricsAddr     = "metrics-addr"
	keyMetricsEnabled  = "metrics"
	keyAllowedOrigins  = "allowed-origins"
	keyChatRate        = "chat-rate"
	keyChatBurst       = "chat-burst"
	keyDisplayTimezone = "display-timezone"
	keyChatTimezone    = "chat-timezone"
	keyUpcomingDays    = "days"

	keyToken              = "token"
	keyAccount            = "account"
	keyADC                = "adc"
	keyGoogleClientID     = "google-client-id"
	keyGoogleClientSecret = "google-client-secret"
)

const envPrefix = "PLANNER"

// DefaultTimezone is used for sessions and displays that name no zone.
const DefaultTimezone = "Asia/Kolkata"

var v = viper.New()

// initConfig binds the executing command's flags, the environment and the
// optional config file into v.
func initConfig(cmd *cobra.Command) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}

	if file := v.GetString(keyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName("config")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "planner"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// config is the resolved configuration of one command invocation.
type config struct {
	LogLevel  string
	LogFormat string
	Timezone  string

	ModelEndpoint    string
	ModelAPIKey      string
	ModelName        string
	ModelTemperature float64
	ModelMaxTokens   int
	ModelTimeout     time.Duration

	MaxTurns         int
	RunTimeout       time.Duration
	RescheduleOrder  string
	RangeConcurrency int
	RangeRate        float64
	GuardPolicy      string
	CalendarTimeout  time.Duration

	Addr            string
	MetricsAddr     string
	MetricsEnabled  bool
	AllowedOrigins  []string
	ChatRate        float64
	ChatBurst       int
	DisplayTimezone string
	ChatTimezone    string
	UpcomingDays    int

	Token              string
	Account            string
	UseADC             bool
	GoogleClientID     string
	GoogleClientSecret string
}

func loadConfig() config {
	return config{
		LogLevel:  v.GetString(keyLogLevel),
		LogFormat: v.GetString(keyLogFormat),
		Timezone:  v.GetString(keyTimezone),

		ModelEndpoint:    v.GetString(keyModelEndpoint),
		ModelAPIKey:      v.GetString(keyModelAPIKey),
		ModelName:        v.GetString(keyModelName),
		ModelTemperature: v.GetFloat64(keyModelTemperature),
		ModelMaxTokens:   v.GetInt(keyModelMaxTokens),
		ModelTimeout:     v.GetDuration(keyModelTimeout),

		MaxTurns:         v.GetInt(keyMaxTurns),
		RunTimeout:       v.GetDuration(keyRunTimeout),
		RescheduleOrder:  v.GetString(keyRescheduleOrder),
		RangeConcurrency: v.GetInt(keyRangeConcurrency),
		RangeRate:        v.GetFloat64(keyRangeRate),
		GuardPolicy:      v.GetString(keyGuardPolicy),
		CalendarTimeout:  v.GetDuration(keyCalendarTimeout),

		Addr:            v.GetString(keyAddr),
		MetricsAddr:     v.GetString(keyMetricsAddr),
		MetricsEnabled:  v.GetBool(keyMetricsEnabled),
		AllowedOrigins:  parseCommaSeparatedList(strings.Join(v.GetStringSlice(keyAllowedOrigins), ",")),
		ChatRate:        v.GetFloat64(keyChatRate),
		ChatBurst:       v.GetInt(keyChatBurst),
		DisplayTimezone: v.GetString(keyDisplayTimezone),
		ChatTimezone:    v.GetString(keyChatTimezone),
		UpcomingDays:    v.GetInt(keyUpcomingDays),

		Token:              v.GetString(keyToken),
		Account:            v.GetString(keyAccount),
		UseADC:             v.GetBool(keyADC),
		GoogleClientID:     v.GetString(keyGoogleClientID),
		GoogleClientSecret: v.GetString(keyGoogleClientSecret),
	}
}

// parseCommaSeparatedList splits a comma-separated string into trimmed,
// non-empty values. It returns nil for empty input.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func addModelFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(keyModelEndpoint, "", "OpenAI-compatible chat completions URL (default HuggingFace router)")
	f.String(keyModelAPIKey, "", "API key for the model endpoint")
	f.String(keyModelName, "", "Model name (default Qwen/Qwen2.5-Coder-32B-Instruct)")
	f.Float64(keyModelTemperature, 0, "Sampling temperature (default 0.1)")
	f.Int(keyModelMaxTokens, 0, "Maximum tokens per model reply (default 512)")
	f.Duration(keyModelTimeout, 0, "Timeout of one model call (default 60s)")
	f.Int(keyMaxTurns, 0, "Maximum model calls per run (default 8)")
	f.Duration(keyRunTimeout, 0, "Wall-clock budget of one run (default 2m)")
	f.String(keyGuardPolicy, "", "Enable the intent guard with policy fail-open or fail-closed")
}

func addToolFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(keyRescheduleOrder, "", "Reschedule step order: create-first or delete-first (default create-first)")
	f.Int(keyRangeConcurrency, 0, "Parallel deletions in delete_events_in_range (default 1)")
	f.Float64(keyRangeRate, 0, "Maximum deletions per second in delete_events_in_range (0 = unlimited)")
	f.Duration(keyCalendarTimeout, 0, "Timeout of one Calendar API call (default 15s)")
}

func addCredentialFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String(keyToken, "", "Google OAuth access token with the calendar scope")
	f.String(keyAccount, "", "Saved account to use when no token is given (default \"default\")")
	f.Bool(keyADC, false, "Use Application Default Credentials")
	f.String(keyGoogleClientID, "", "Google OAuth client id, used to refresh saved tokens")
	f.String(keyGoogleClientSecret, "", "Google OAuth client secret, used to refresh saved tokens")
}
