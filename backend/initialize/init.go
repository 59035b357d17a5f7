package initialize

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"blog-system/backend/app/controllers"
	"blog-system/backend/app/db"
	"blog-system/backend/app/events"
	jwtutil "blog-system/backend/app/jwt"
	"blog-system/backend/app/middleware"
	"blog-system/backend/app/repo"
	"blog-system/backend/app/services"
	"blog-system/backend/app/storage"
	"blog-system/backend/app/views"
	"blog-system/backend/config"
	"blog-system/backend/global"
	"blog-system/backend/router"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"gorm.io/gorm"
)

type App struct {
	Cfg       *config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Events    events.Publisher
	Router    http.Handler
	Users     *services.UserService
	Articles  *services.ArticleService
	Blacklist *services.TokenBlacklist
}

// Build loads the config at configPath, connects every backing service and
// returns the assembled application.
func Build(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	SetLogLevel(cfg.LogLevel)

	gdb, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		_ = db.Close(gdb)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Pass, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			global.Logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, logout revocation disabled")
			_ = rdb.Close()
			rdb = nil
		}
	}

	return Wire(ctx, cfg, gdb, rdb, afero.NewOsFs())
}

// OpenDB connects to the database named in cfg.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	gdb, err := db.Connect(db.Config{
		Driver:   cfg.DB.Driver,
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Pass,
		DBName:   cfg.DB.Name,
		Path:     cfg.DB.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return gdb, nil
}

// Wire assembles the application on top of already opened resources. rdb may
// be nil.
func Wire(ctx context.Context, cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, fs afero.Fs) (*App, error) {
	global.Config = *cfg
	global.Mdb = gdb
	global.Rdb = rdb

	images, err := storage.NewImageStore(fs, cfg.Upload.Dir, cfg.Upload.PublicPrefix)
	if err != nil {
		return nil, err
	}
	rnd, err := views.New()
	if err != nil {
		return nil, err
	}
	pub := events.New(cfg.Events.Brokers, cfg.Events.Topic)

	// Services
	userSvc := services.NewUserService(repo.NewUserRepository(gdb))
	articleSvc := services.NewArticleService(repo.NewArticleRepository(gdb), images, pub)
	blacklist := services.NewTokenBlacklist(rdb)
	if err := userSvc.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		global.Logger.Error().Err(err).Str("user", cfg.Admin.Username).Msg("seed admin failed")
	}

	// Controllers
	signer := &jwtutil.Signer{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer, ExpMin: cfg.JWT.ExpMin}
	mw := &middleware.Auth{Signer: signer, Users: userSvc}
	if rdb != nil {
		mw.Revoked = blacklist
	}

	h := router.NewRouter(router.Routes{
		HTTP:        controllers.NewHTTPController(gdb, rnd),
		Home:        controllers.NewHomeController(),
		Articles:    controllers.NewArticleController(articleSvc, rnd, cfg.Upload.MaxMB<<20),
		Auth:        controllers.NewAuthController(userSvc, signer, blacklist, rnd),
		Mw:          mw,
		Limiter:     middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Metrics:     middleware.NewMetrics(),
		ImagePrefix: images.Prefix(),
		Images:      images.Handler(),
	})

	return &App{
		Cfg:       cfg,
		DB:        gdb,
		Redis:     rdb,
		Events:    pub,
		Router:    h,
		Users:     userSvc,
		Articles:  articleSvc,
		Blacklist: blacklist,
	}, nil
}

// Close flushes the event writer before closing connections.
func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, db.Close(a.DB))
	}
	return errors.Join(errs...)
}
