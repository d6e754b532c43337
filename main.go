package main

import (
	"embed"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/recipeapp/recipe-app/auth"
	"github.com/recipeapp/recipe-app/handler"
	"github.com/recipeapp/recipe-app/metrics"
	"github.com/recipeapp/recipe-app/news"
	"github.com/recipeapp/recipe-app/router"
	"github.com/recipeapp/recipe-app/store"
	"github.com/recipeapp/recipe-app/store/jsondb"
	"github.com/recipeapp/recipe-app/store/mysqldb"
	"github.com/recipeapp/recipe-app/util"
)

var (
	// command-line banner information
	appVersion = "development"
	gitCommit  = "N/A"
	gitRef     = "N/A"
	buildTime  = time.Now().UTC().Format("01-02-2006 15:04:05")
	// configuration variables
	flagBindAddress   = util.DefaultBindAddress
	flagBasePath      = util.DefaultBasePath
	flagDBPath        = util.DefaultDBPath
	flagDBType        = util.DefaultDBType
	flagMySQLHost     = "127.0.0.1"
	flagMySQLPort     = util.DefaultMySQLPort
	flagMySQLUser     string
	flagMySQLPassword string
	flagMySQLDatabase = util.DefaultMySQLDatabase
	flagMySQLTLS      = util.DefaultMySQLTLS
	flagSessionSecret string
	flagNewsFeedURL   string
	flagPublicURL     string
	flagViewDelay     = util.DefaultViewDelay
	flagViewTimeout   = util.DefaultViewTimeout
	flagHashPasswords bool
	flagAuthRateLimit = float64(util.DefaultAuthRateLimit)
	flagSessionCache  = util.DefaultSessionCacheSize
	flagSessionIdle   = util.DefaultSessionIdleTimeout
)

// embed the "templates" directory
//
//go:embed templates/*
var embeddedTemplates embed.FS

// embed the "assets" directory
//
//go:embed assets/*
var embeddedAssets embed.FS

func init() {

	// command-line flags and env variables
	flag.StringVar(&flagBindAddress, "bind-address", util.LookupEnvOrString("BIND_ADDRESS", flagBindAddress), "Address:Port to which the app will be bound.")
	flag.StringVar(&flagBasePath, "base-path", util.LookupEnvOrString("BASE_PATH", flagBasePath), "The base path of the URL. Use an empty string to serve from /.")
	flag.StringVar(&flagDBPath, "db-path", util.LookupEnvOrString("DB_PATH", flagDBPath), "Directory of the JSON database.")
	flag.StringVar(&flagDBType, "db-type", util.LookupEnvOrString("DB_TYPE", flagDBType), "Storage backend: json or mysql.")
	flag.StringVar(&flagMySQLHost, "mysql-host", util.LookupEnvOrString("MYSQL_HOST", flagMySQLHost), "MySQL host.")
	flag.IntVar(&flagMySQLPort, "mysql-port", util.LookupEnvOrInt("MYSQL_PORT", flagMySQLPort), "MySQL port.")
	flag.StringVar(&flagMySQLUser, "mysql-user", util.LookupEnvOrString("MYSQL_USER", flagMySQLUser), "MySQL user.")
	flag.StringVar(&flagMySQLPassword, "mysql-password", util.LookupEnvOrString("MYSQL_PASSWORD", flagMySQLPassword), "MySQL password.")
	flag.StringVar(&flagMySQLDatabase, "mysql-database", util.LookupEnvOrString("MYSQL_DATABASE", flagMySQLDatabase), "MySQL database name.")
	flag.StringVar(&flagMySQLTLS, "mysql-tls", util.LookupEnvOrString("MYSQL_TLS", flagMySQLTLS), "MySQL TLS mode (true, false, skip-verify, preferred).")
	flag.StringVar(&flagSessionSecret, "session-secret", util.LookupEnvOrString("SESSION_SECRET", flagSessionSecret), "The key used to sign session cookies. A random key is generated when empty.")
	flag.StringVar(&flagNewsFeedURL, "news-feed-url", util.LookupEnvOrString("NEWS_FEED_URL", flagNewsFeedURL), "RSS/Atom feed shown on the news page.")
	flag.StringVar(&flagPublicURL, "public-url", util.LookupEnvOrString("PUBLIC_URL", flagPublicURL), "Public origin of the app, e.g. https://recipes.example.com. Enables recipe QR codes.")
	flag.DurationVar(&flagViewDelay, "view-delay", util.LookupEnvOrDuration("VIEW_DELAY", flagViewDelay), "How long a page may load before the loading view is shown.")
	flag.DurationVar(&flagViewTimeout, "view-timeout", util.LookupEnvOrDuration("VIEW_TIMEOUT", flagViewTimeout), "How long a page may load before the fallback view is shown. 0 disables the timeout.")
	flag.BoolVar(&flagHashPasswords, "hash-passwords", util.LookupEnvOrBool("HASH_PASSWORDS", flagHashPasswords), "Store bcrypt hashes instead of plain passwords.")
	flag.Float64Var(&flagAuthRateLimit, "auth-rate-limit", util.LookupEnvOrFloat("AUTH_RATE_LIMIT", flagAuthRateLimit), "Login/register requests per second per client IP. 0 disables the limit.")
	flag.IntVar(&flagSessionCache, "session-cache-size", util.LookupEnvOrInt("SESSION_CACHE_SIZE", flagSessionCache), "How many browser sessions are kept in memory. 0 keeps all of them.")
	flag.DurationVar(&flagSessionIdle, "session-idle-timeout", util.LookupEnvOrDuration("SESSION_IDLE_TIMEOUT", flagSessionIdle), "How long an unused browser session stays in memory. 0 keeps it until the cache is full.")
	flag.Parse()

	// update runtime config
	util.BindAddress = flagBindAddress
	util.BasePath = util.NormalizeBasePath(flagBasePath)
	util.DBPath = flagDBPath
	util.DBType = flagDBType
	util.MySQLHost = flagMySQLHost
	util.MySQLPort = flagMySQLPort
	util.MySQLUser = flagMySQLUser
	util.MySQLPassword = flagMySQLPassword
	util.MySQLDatabase = flagMySQLDatabase
	util.MySQLTLS = flagMySQLTLS
	util.SessionSecret = []byte(flagSessionSecret)
	util.NewsFeedURL = flagNewsFeedURL
	util.PublicURL = flagPublicURL
	util.ViewDelay = flagViewDelay
	util.ViewTimeout = flagViewTimeout
	util.HashPasswords = flagHashPasswords
	util.AuthRateLimit = flagAuthRateLimit
	util.SessionCacheSize = flagSessionCache
	util.SessionIdleTimeout = flagSessionIdle

	if len(util.SessionSecret) == 0 {
		util.SessionSecret = securecookie.GenerateRandomKey(32)
	}

	lvl, _ := util.ParseLogLevel(util.LookupEnvOrString(util.LogLevel, "INFO"))
	if lvl <= log.INFO {
		// print app information
		fmt.Println("Recipe App")
		fmt.Println("App Version\t:", appVersion)
		fmt.Println("Git Commit\t:", gitCommit)
		fmt.Println("Git Ref\t\t:", gitRef)
		fmt.Println("Build Time\t:", buildTime)
		fmt.Println("Bind address\t:", util.BindAddress)
		fmt.Println("Base path\t:", util.BasePath)
		fmt.Println("DB type\t\t:", util.DBType)
		if util.DBType == util.DBTypeMySQL {
			fmt.Println("MySQL address\t:", fmt.Sprintf("%s:%d/%s", util.MySQLHost, util.MySQLPort, util.MySQLDatabase))
		} else {
			fmt.Println("DB path\t\t:", util.DBPath)
		}
		fmt.Println("News feed\t:", util.NewsFeedURL)
		fmt.Println("Public URL\t:", util.PublicURL)
		fmt.Println("View delay\t:", util.ViewDelay)
		fmt.Println("View timeout\t:", util.ViewTimeout)
		fmt.Println("Hash passwords\t:", util.HashPasswords)
		fmt.Println("Auth rate limit\t:", util.AuthRateLimit)
		fmt.Println("Session cache\t:", util.SessionCacheSize, "/", util.SessionIdleTimeout)
		//fmt.Println("Session secret\t:", util.SessionSecret)
	}
}

func main() {
	db, err := openStore()
	if err != nil {
		panic(err)
	}
	if err := db.Init(); err != nil {
		panic(err)
	}

	// set app extra data
	extraData := make(map[string]interface{})
	extraData["appVersion"] = appVersion

	tmplDir, _ := fs.Sub(fs.FS(embeddedTemplates), "templates")
	assetsDir, _ := fs.Sub(fs.FS(embeddedAssets), "assets")

	app, err := router.New(tmplDir, extraData, util.SessionSecret)
	if err != nil {
		panic(err)
	}

	var authOpts []auth.Option
	if util.HashPasswords {
		authOpts = append(authOpts, auth.WithPasswordHashing(util.DefaultBcryptCost))
	}
	registry := auth.NewRegistry(db, auth.RegistryLimits{
		Capacity:    util.SessionCacheSize,
		IdleTimeout: util.SessionIdleTimeout,
	}, authOpts...)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(promRegistry)

	pages, err := handler.NewPageTable(db, news.NewFetcher(util.NewsFeedURL), handler.PageConfig{
		Delay:     util.ViewDelay,
		Timeout:   util.ViewTimeout,
		PublicURL: util.PublicURL,
		BasePath:  util.BasePath,
	})
	if err != nil {
		panic(err)
	}

	// register routes
	handler.Mount(app, util.BasePath, handler.Dependencies{
		Pages:         pages,
		Registry:      registry,
		Metrics:       collector,
		Assets:        assetsDir,
		AuthRateLimit: util.AuthRateLimit,
	})

	err = app.Start(util.BindAddress)
	if closer, ok := db.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			app.Logger.Errorf("Cannot close the database: %v", cerr)
		}
	}
	app.Logger.Fatal(err)
}

func openStore() (store.IStore, error) {
	switch util.DBType {
	case util.DBTypeJSON:
		return jsondb.New(util.DBPath)
	case util.DBTypeMySQL:
		return mysqldb.New(util.MySQLUser, util.MySQLPassword, util.MySQLHost, util.MySQLPort, util.MySQLDatabase, util.MySQLTLS)
	default:
		return nil, fmt.Errorf("unknown db type %q", util.DBType)
	}
}
