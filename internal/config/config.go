package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for duration-typed settings
)

// Store backend selectors accepted in STORE_BACKEND. The backend
// is chosen once at startup; the rest of the application only sees
// the store interfaces.
const (
	BackendMySQL  = "mysql"  // direct relational store
	BackendRest   = "rest"   // proxied external REST data API
	BackendMemory = "memory" // in-memory store (dev/tests only)
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Secrets, TTLs and credentials are read here once
// and handed to constructors; no other package reads the environment for
// these values.
type Config struct {
	Env          string        // application environment (e.g. "dev", "prod")
	Port         string        // HTTP port to listen on
	StoreBackend string        // "mysql", "rest" or "memory"
	DBUser       string        // database username (mysql backend)
	DBPass       string        // database password (optional)
	DBHost       string        // database host address
	DBPort       string        // database port number
	DBName       string        // database name
	DBPoolSize   int           // max open connections in the pool
	RestAPIURL   string        // base URL of the external data API (rest backend)
	RestAPIKey   string        // api key sent to the external data API
	JWTSecret    string        // secret used to sign JWTs
	JWTAudience  string        // audience claim enforced on tokens
	JWTIssuer    string        // issuer claim enforced on tokens
	AccessTTLMin int           // access token time-to-live in minutes
	BcryptCost   int           // bcrypt cost for password hashing
	StoreTimeout time.Duration // per-request bound on store operations
	UploadDir    string        // directory for uploaded files
	AMQPURL      string        // RabbitMQ URL for domain events (optional)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. The mysql DB_*
// variables are only required when the mysql backend is selected;
// REST_API_URL only when the rest backend is.
func Load() Config {
	cfg := Config{
		Env:          must("APP_ENV"),                              // environment (dev/test/prod)
		Port:         must("APP_PORT"),                             // port to bind the HTTP server
		StoreBackend: envStr("STORE_BACKEND", BackendMySQL),        // which store implementation to use
		JWTSecret:    must("JWT_SECRET"),                           // secret used for signing JWTs
		JWTAudience:  envStr("JWT_AUDIENCE", "crittertrack-users"), // audience claim
		JWTIssuer:    envStr("JWT_ISSUER", "crittertrack-server"),  // issuer claim
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),           // TTL for access tokens in minutes
		BcryptCost:   envInt("BCRYPT_COST", 12),                    // bcrypt cost factor
		DBPoolSize:   envInt("DB_POOL_SIZE", 3),                    // bounded pool; excess callers queue
		StoreTimeout: envDur("STORE_TIMEOUT", 30*time.Second),      // queueing latency bound per request
		UploadDir:    envStr("UPLOAD_DIR", "uploads"),              // where uploaded files land
		AMQPURL:      os.Getenv("AMQP_URL"),                        // empty disables event publishing
	}
	switch cfg.StoreBackend {
	case BackendMySQL:
		cfg.DBUser = must("DB_USER")      // database user
		cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")      // database host
		cfg.DBPort = must("DB_PORT")      // database port
		cfg.DBName = must("DB_NAME")      // database name
	case BackendRest:
		cfg.RestAPIURL = must("REST_API_URL")      // external data API base URL
		cfg.RestAPIKey = os.Getenv("REST_API_KEY") // api key (empty allowed for local stubs)
	case BackendMemory:
		// nothing to configure; data lives for the process lifetime
	default:
		log.Fatalf("unknown STORE_BACKEND: %q", cfg.StoreBackend)
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt falls back to the default instead of exiting; only truly
// required values go through must().
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

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
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
