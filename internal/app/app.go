// This package is used to initialize the application. It has dependencies on most
// other packages. Other packages can depend on it as a quick way to get access to
// all the dependencies.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/petuhovskiy/powerpick/internal/bgjobs"
	"github.com/petuhovskiy/powerpick/internal/conf"
	"github.com/petuhovskiy/powerpick/internal/display"
	"github.com/petuhovskiy/powerpick/internal/draw"
	"github.com/petuhovskiy/powerpick/internal/freq"
	"github.com/petuhovskiy/powerpick/internal/gate"
	"github.com/petuhovskiy/powerpick/internal/log"
	"github.com/petuhovskiy/powerpick/internal/messages"
	"github.com/petuhovskiy/powerpick/internal/models"
	"github.com/petuhovskiy/powerpick/internal/nextdraw"
	"github.com/petuhovskiy/powerpick/internal/repos"
	"github.com/petuhovskiy/powerpick/internal/session"
	"github.com/petuhovskiy/powerpick/internal/snapshot"
	"github.com/petuhovskiy/powerpick/internal/store"
)

type App struct {
	Config *conf.App
	// DB is nil when the store is in memory.
	DB       *gorm.DB
	Repo     *Repos
	Store    store.Store
	Register *bgjobs.Register
	Timers   *bgjobs.RealTimers
	Gate     *gate.Gate
	Board    *display.Board
	Session  *session.Session
}

func NewAppFromEnv() (*App, error) {
	cfg, err := conf.ParseEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config from env: %w", err)
	}
	return NewApp(cfg)
}

func NewApp(cfg *conf.App) (*App, error) {
	ctx := context.Background()

	var (
		db   *gorm.DB
		repo *Repos
		st   store.Store
		err  error
	)
	if cfg.StoreDSN == "" {
		log.Warn(ctx, "no store configured, cooldown will not survive restarts")
		st = store.NewMemory()
	} else {
		db, err = connectDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to store: %w", err)
		}
		repo, err = createRepos(db, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create repos: %w", err)
		}
		st = repo.Setting
	}

	tables := freq.Historical()
	if cfg.FrequencyFile != "" {
		tables, err = freq.LoadFile(cfg.FrequencyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load frequency file: %w", err)
		}
		log.Info(ctx, "using frequency file", zap.String("path", cfg.FrequencyFile))
	}

	log.Info(ctx, "frequency tables loaded",
		zap.Int("main_labels", tables.Main.Max()),
		zap.Int("main_total", tables.Main.Total()),
		zap.Int("secondary_labels", tables.Secondary.Max()),
		zap.Int("secondary_total", tables.Secondary.Total()),
	)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	register := bgjobs.NewRegister()
	timers := bgjobs.NewRealTimers(register)

	generator, err := draw.NewGenerator(tables, rand.New(rand.NewSource(seed)), timers.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to create generator: %w", err)
	}

	var schedule *nextdraw.Schedule
	if cfg.DrawSchedule != "" {
		schedule, err = nextdraw.Parse(cfg.DrawSchedule)
		if err != nil {
			return nil, err
		}
	}

	var snapshots snapshot.Service
	if cfg.ExportEnabled {
		snapshots = snapshot.NewRenderer()
	}

	g := gate.New(st, cfg.StoreKey, cfg.Cooldown, timers)
	board := display.NewBoard(display.StandardSlots()...)

	sess := session.New(session.Deps{
		Gate:      g,
		Generator: generator,
		Revealer:  display.NewRevealer(timers, cfg.RevealStep),
		Timers:    timers,
		Sink:      board,
		Catalog:   messages.NewCatalog(cfg.Locale),
		Snapshots: snapshots,
		Schedule:  schedule,
		Observer:  metricsObserver{},
	}, session.Config{
		Product: cfg.Product,
		Export: snapshot.Options{
			BackgroundTransparent: cfg.ExportTransparent,
			Scale:                 cfg.ExportScale,
		},
	})

	return &App{
		Config:   cfg,
		DB:       db,
		Repo:     repo,
		Store:    st,
		Register: register,
		Timers:   timers,
		Gate:     g,
		Board:    board,
		Session:  sess,
	}, nil
}

func (a *App) StartPrometheus() {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		err := http.ListenAndServe(a.Config.PrometheusBind, mux)
		if err != nil && err != http.ErrServerClosed {
			log.Fatal(context.TODO(), "prometheus server error", zap.Error(err))
		}
	}()
}

func connectDB(cfg *conf.App) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if isPostgres(cfg.StoreDSN) {
		dialector = postgres.Open(cfg.StoreDSN)
	} else {
		dialector = sqlite.Open(cfg.StoreDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

type Repos struct {
	Setting *repos.SettingRepo
}

func createRepos(db *gorm.DB, cfg *conf.App) (*Repos, error) {
	err := db.AutoMigrate(
		&models.Setting{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	if cfg.DebugDB {
		db = db.Debug()
	}

	return &Repos{
		Setting: repos.NewSettingRepo(db),
	}, nil
}
