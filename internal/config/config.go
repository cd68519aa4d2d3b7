package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  JWTSecret and DatabaseDSN are mandatory: the
// service refuses to start without them rather than issue unsigned tokens or
// fail on the first query.
type Config struct {
	Env            string // application environment (e.g. "development", "production")
	Port           string // HTTP port to listen on
	DatabaseDSN    string // normalized MySQL DSN
	JWTSecret      string // secret used to sign session tokens
	BcryptCost     int    // bcrypt cost for password hashing
	CookieSecure   bool   // force the Secure attribute on the session cookie
	MigrateOnStart bool   // apply embedded schema migrations before serving
}

// ErrMissingEnv is wrapped by Load for every required variable that is unset.
var ErrMissingEnv = errors.New("missing required env var")

// Load reads configuration values from environment variables and returns a
// Config.  All missing required variables are reported together.
func Load() (Config, error) {
	var errs []error
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingEnv, key))
		}
		return v
	}

	cfg := Config{
		Env:            envStr("APP_ENV", "development"),
		Port:           envStr("APP_PORT", "8080"),
		JWTSecret:      required("JWT_SECRET"),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		MigrateOnStart: envBool("MIGRATE_ON_START", true),
	}
	cfg.CookieSecure = envBool("COOKIE_SECURE", cfg.IsProduction())

	if raw := required("DB_DSN"); raw != "" {
		dsn, err := NormalizeDSN(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid DB_DSN: %w", err))
		}
		cfg.DatabaseDSN = dsn
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NormalizeDSN parses a MySQL DSN and forces the options the repositories
// rely on: DATETIME columns scan into time.Time in UTC, and UPDATE reports
// matched rows so an unchanged replace is not mistaken for a missing row.
func NormalizeDSN(raw string) (string, error) {
	mc, err := mysql.ParseDSN(raw)
	if err != nil {
		return "", err
	}
	if mc.DBName == "" {
		return "", errors.New("database name is required")
	}
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.ClientFoundRows = true
	return mc.FormatDSN(), nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
