// Package config loads and validates application configuration from
// environment variables. A .env file is honored when present so local
// development does not need exported variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Embedded tzdata fallback so minimal containers without a zoneinfo
	// directory can still resolve the operating timezone.
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the shuttle pool service.
// Values are populated by Load from environment variables and passed
// explicitly into every component constructor — nothing reads the
// environment after startup.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins for
	// the operator endpoints. Defaults to ["http://localhost:5173"].
	CORSOrigins []string

	// Timezone is the fixed operating timezone all slot times, day windows,
	// and job schedules are interpreted in. Defaults to "Asia/Kolkata".
	Timezone *time.Location

	// GraphAPIVersion and BusinessNumber form the WhatsApp Cloud API
	// messages endpoint together with MessagesURL.
	GraphAPIVersion string
	BusinessNumber  string

	// GraphToken is the bearer credential for the messaging gateway. Required.
	GraphToken string

	// VerifyToken is the shared secret echoed during webhook subscription
	// verification. Required.
	VerifyToken string

	// DriverNumber is the recipient of operator-initiated route plans.
	DriverNumber string

	// ReminderWindow is how far ahead of departure the reminder job looks.
	// Defaults to 10 minutes.
	ReminderWindow time.Duration

	// JobsCronSpec schedules the expiry sweep and reminder job. Defaults to
	// every ten minutes during operating hours, in the operating timezone.
	JobsCronSpec string

	// MetricsAddr is the optional prometheus listen address (e.g. ":9102").
	// Empty disables the metrics server.
	MetricsAddr string
}

// MessagesURL returns the WhatsApp Cloud API send endpoint for the
// configured business number.
func (c Config) MessagesURL() string {
	return fmt.Sprintf("https://graph.facebook.com/%s/%s/messages", c.GraphAPIVersion, c.BusinessNumber)
}

// Load reads configuration from the environment (and an optional .env file)
// and returns a Config. Returns an error listing any required variables that
// are not set.
func Load() (Config, error) {
	// Load .env into the environment first; absence is not an error.
	_ = godotenv.Load()

	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		GraphAPIVersion: getEnv("GRAPH_API_VERSION", "v20.0"),
		DriverNumber:    os.Getenv("ONE_DRIVER"),
		JobsCronSpec:    getEnv("JOBS_CRON_SPEC", "*/10 7-22 * * *"),
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
	}

	tzName := getEnv("TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	windowMin, err := strconv.Atoi(getEnv("REMINDER_WINDOW_MIN", "10"))
	if err != nil || windowMin <= 0 {
		return Config{}, fmt.Errorf("invalid REMINDER_WINDOW_MIN: %q", os.Getenv("REMINDER_WINDOW_MIN"))
	}
	cfg.ReminderWindow = time.Duration(windowMin) * time.Minute

	var missing []string
	for _, v := range []struct {
		name string
		dst  *string
	}{
		{"DATABASE_URL", &cfg.DatabaseURL},
		{"GRAPH_API_TOKEN", &cfg.GraphToken},
		{"WEBHOOK_VERIFY_TOKEN", &cfg.VerifyToken},
		{"BUSINESS_WA_NO", &cfg.BusinessNumber},
	} {
		*v.dst = os.Getenv(v.name)
		if *v.dst == "" {
			missing = append(missing, v.name)
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
