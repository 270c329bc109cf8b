package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. It is built once at startup
// and passed by value into handlers and token helpers, so no business logic
// ever reads the environment directly.
type Config struct {
	Env            string // application environment ("dev", "test", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign access tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	ResetTTLMin    int    // password reset token time-to-live in minutes
	CookieSecure   bool   // Secure flag on auth cookies, on in prod
	AppURL         string // public frontend URL used in reset-password links
	MailHost       string // SMTP host for outgoing mail
	MailPort       string // SMTP port
	MailFrom       string // From address on outgoing mail
}

// Load reads configuration from the environment. Required variables are
// enforced by must() and missing values cause the program to exit; the
// signing secret in particular is a fatal configuration error, never a
// per-request one.
func Load() Config {
	env := must("APP_ENV")
	return Config{
		Env:            env,
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   optInt("ACCESS_TOKEN_TTL_MIN", 60),
		RefreshTTLDays: optInt("REFRESH_TOKEN_TTL_DAYS", 7),
		ResetTTLMin:    optInt("RESET_TOKEN_TTL_MIN", 15),
		CookieSecure:   env == "prod",
		AppURL:         opt("APP_URL", "http://localhost:3000"),
		MailHost:       opt("MAIL_HOST", "localhost"),
		MailPort:       opt("MAIL_PORT", "1025"),
		MailFrom:       opt("MAIL_FROM", `"Gamer Challenges" <no-reply@gamerchallenges.com>`),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// opt retrieves an optional environment variable with a default.
func opt(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// optInt is like opt() but converts the value into an integer. Invalid
// values are a configuration error and abort startup.
func optInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
