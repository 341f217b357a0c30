package main

import (
	"fmt"
	"html/template"
	"io"
	golog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"audioconv/config"
	"audioconv/ffmpeg"
	"audioconv/jobs"
	"audioconv/sources"
	"audioconv/sweep"
	"audioconv/transcode"
	"audioconv/ytdlp"
)

var db *gorm.DB
var cfg config.Config
var registry *jobs.Registry
var runner *jobs.Runner

func ensureAdminAccount(db *gorm.DB) error {

	var user User
	if err := db.Where("username = ?", "admin").First(&user).Error; err != nil {
		// no such user

		password, err := config.GetAdminInitialPassword()
		if err != nil {
			return err
		}

		err = CreateUser(db, "admin", password)
		if err != nil {
			return err
		}
	}
	return nil
}

func main() {

	initLogger()

	log.Infof("GitSHA: %s", config.GetGitSHA())
	log.Infof("BuildDate: %s", config.GetBuildDate())

	ffmpeg.Init(log)
	ytdlp.Init(log)
	jobs.Init(log)
	sweep.Init(log)

	var err error
	cfg, err = config.Load(config.GetConfigFile())
	if err != nil {
		log.Panicf("failed to load config: %v", err)
	}

	for _, dir := range append(cfg.ManagedDirs(), config.GetConfigDir()) {
		if err := os.MkdirAll(dir, 0700); err != nil {
			log.Panicf("failed to create dir %s", dir)
		}
	}

	gormLogger := logger.New(
		golog.New(os.Stdout, "\r\n", golog.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			ParameterizedQueries:      true,        // Don't include params in the SQL log
			Colorful:                  false,       // Disable color
		},
	)

	// Initialize database
	dbPath := filepath.Join(config.GetConfigDir(), "audioconv.db")
	db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Panicf("failed to connect to database %s", dbPath)
	}

	// set only a single connection so we don't actually have concurrent writes
	sqlDB, err := db.DB()
	if err != nil {
		log.Panicln("failed to retrieve database")
	}
	sqlDB.SetMaxOpenConns(1)

	// Migrate the schema
	db.AutoMigrate(&User{}, &Upload{}, &Conversion{})

	// create a user
	err = ensureAdminAccount(db)
	if err != nil {
		panic(fmt.Sprintf("failed to create admin user: %v", err))
	}

	// conversion pipeline: registry, resolver, transcoder, runner
	registry = jobs.NewRegistry()
	transcoder := transcode.New(cfg.OutputDir, transcode.NameJobPrefix)
	runner = jobs.NewRunner(registry, sources.NewResolver(), transcoder, cfg.TempDir)
	runner.OnTerminal = func(snap jobs.Snapshot) {
		recordConversion(snap, outputFormatOf(snap))
	}

	// reclaim aged uploads, outputs, and scratch files
	sweeper := sweep.New(cfg.ManagedDirs(),
		time.Duration(cfg.RetentionHours)*time.Hour,
		time.Duration(cfg.SweepIntervalMins)*time.Minute)
	sweeper.Start()
	defer sweeper.Stop()

	// create the cookie store
	key, err := config.GetSessionAuthKey()
	if err != nil {
		panic(fmt.Sprintf("%v", err))
	}
	store = sessions.NewCookieStore(key)

	// Initialize Echo
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Templates
	t := &Template{
		templates: template.Must(template.ParseGlob("templates/*.html")),
	}
	e.Renderer = t

	// Routes
	e.GET("/login", loginHandler)
	e.POST("/login", loginPostHandler)
	e.GET("/logout", logoutHandler)
	e.GET("/", homeHandler, authMiddleware)
	e.POST("/upload", uploadHandler, authMiddleware)
	e.POST("/convert", convertHandler, authMiddleware)
	e.GET("/status/:id", statusHandler, authMiddleware)
	e.GET("/download/:id", downloadConvertedHandler, authMiddleware)
	e.GET("/formats", formatsHandler, authMiddleware)
	e.GET("/presets", presetsHandler, authMiddleware)
	e.GET("/history", historyHandler, authMiddleware)

	staticGroup := e.Group("/static")
	staticGroup.Static("/", "static")

	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60, // seconds
		HttpOnly: true,
		Secure:   config.GetSecure(),
	}

	// Start server
	e.Logger.Fatal(e.Start(cfg.ListenAddr))
}

// outputFormatOf recovers the format id from a completed job's output
// extension; failed jobs may have none.
func outputFormatOf(snap jobs.Snapshot) string {
	ext := filepath.Ext(snap.OutputPath)
	if ext == "" {
		return ""
	}
	return ext[1:]
}

// Template renderer
type Template struct {
	templates *template.Template
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}
