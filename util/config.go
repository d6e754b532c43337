package util

import "time"

// Runtime config
var (
	BindAddress   string
	BasePath      string
	DBPath        string
	DBType        string
	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
	MySQLTLS      string
	SessionSecret []byte
	NewsFeedURL   string
	PublicURL     string
	ViewDelay     time.Duration
	ViewTimeout   time.Duration
	HashPasswords bool
	AuthRateLimit float64

	SessionCacheSize   int
	SessionIdleTimeout time.Duration
)

const (
	DefaultBindAddress   = "0.0.0.0:5000"
	DefaultBasePath      = "/recipe-app"
	DefaultDBPath        = "./db"
	DefaultDBType        = DBTypeJSON
	DefaultMySQLPort     = 3306
	DefaultMySQLDatabase = "recipe_app"
	DefaultMySQLTLS      = "false"
	DefaultViewDelay     = 200 * time.Millisecond
	DefaultViewTimeout   = 5 * time.Second
	DefaultAuthRateLimit = 5
	DefaultBcryptCost    = 12
	LogLevel             = "LOG_LEVEL"

	DefaultSessionCacheSize   = 10000
	DefaultSessionIdleTimeout = 30 * time.Minute
)

// Storage backends
const (
	DBTypeJSON  = "json"
	DBTypeMySQL = "mysql"
)
