package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"
	"gorm.io/gorm"

	"github.com/deanogram/yagamerbot2.0/moderation"
	"github.com/deanogram/yagamerbot2.0/moderation/cachestore"
	"github.com/deanogram/yagamerbot2.0/moderation/countstore"
	"github.com/deanogram/yagamerbot2.0/moderation/flagstore"
	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
	"github.com/deanogram/yagamerbot2.0/moderation/ratelimit"
	"github.com/deanogram/yagamerbot2.0/moderation/ratestore"
	"github.com/deanogram/yagamerbot2.0/moderation/rules"
	"github.com/deanogram/yagamerbot2.0/moderation/setstore"
)

type Server struct {
	logger        *slog.Logger
	engine        *moderation.Engine
	echo          *echo.Echo
	httpd         *http.Server
	sweepInterval time.Duration
}

type Config struct {
	Logger           *slog.Logger
	RedisURL         string
	SetsFileJSON     string
	OwnerID          int64
	MinInterval      time.Duration
	DailyCap         int
	FloodCount       int
	FloodWindow      time.Duration
	CapsRatio        float64
	MinEmoji         int
	WarnThreshold    int
	AutoMuteDuration time.Duration
	SweepInterval    time.Duration
	StatsCacheTTL    time.Duration
}

func NewServer(db *gorm.DB, config Config) (*Server, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	statsTTL := config.StatsCacheTTL
	if statsTTL <= 0 {
		statsTTL = cachestore.DefaultStatsTTL
	}

	var sets setstore.SetStore
	var counters countstore.CountStore
	var cache cachestore.CacheStore
	var flags flagstore.FlagStore
	var rates ratestore.RateStore
	if config.RedisURL != "" {
		// check redis connection before wiring up any of the stores
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis URL: %v", err)
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.TODO()).Result(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %v", err)
		}

		st, err := setstore.NewRedisSetStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis setstore: %v", err)
		}
		sets = st

		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %v", err)
		}
		counters = cnt

		csh, err := cachestore.NewRedisCacheStore(config.RedisURL, statsTTL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis cachestore: %v", err)
		}
		cache = csh

		flg, err := flagstore.NewRedisFlagStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis flagstore: %v", err)
		}
		flags = flg

		rts, err := ratestore.NewRedisRateStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis ratestore: %v", err)
		}
		rates = rts
	} else {
		sets = setstore.NewMemSetStore()
		counters = countstore.NewMemCountStore()
		cache = cachestore.NewMemCacheStore(5_000, statsTTL)
		flags = flagstore.NewMemFlagStore()
		rates = ratestore.NewMemRateStore()
	}

	if config.SetsFileJSON != "" {
		if err := setstore.LoadFromFileJSON(context.TODO(), sets, config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("seeding rule sets: %v", err)
		}
		logger.Info("loaded set config from JSON", "path", config.SetsFileJSON)
	}

	store, err := ledger.NewGormStore(db)
	if err != nil {
		return nil, fmt.Errorf("initializing sanction ledger: %v", err)
	}

	limits := ratelimit.Limits{
		MinInterval:       config.MinInterval,
		MaxPerDay:         config.DailyCap,
		FloodMessageCount: config.FloodCount,
		FloodWindow:       config.FloodWindow,
		MaxCapsRatio:      config.CapsRatio,
		MinEmojiCount:     config.MinEmoji,
	}

	policy := moderation.DefaultEscalationPolicy()
	if config.WarnThreshold > 0 {
		policy.WarnThreshold = config.WarnThreshold
		policy.DisplayThreshold = config.WarnThreshold - 1
	}
	if config.AutoMuteDuration > 0 {
		policy.AutoMuteDuration = config.AutoMuteDuration
	}

	engine := &moderation.Engine{
		Logger:   logger,
		Rules:    rules.DefaultRules(),
		Tracker:  ratelimit.NewTracker(rates, limits),
		Counters: counters,
		Sets:     sets,
		Flags:    flags,
		Cache:    cache,
		Ledger:   store,
		Policy:   policy,
		Roles:    &moderation.Roles{OwnerID: config.OwnerID, Store: store},
	}

	s := newAPIServer(logger, engine)
	s.sweepInterval = config.SweepInterval
	return s, nil
}

// newAPIServer wires the HTTP routes around an already-built engine.
func newAPIServer(logger *slog.Logger, engine *moderation.Engine) *Server {
	s := &Server{
		logger: logger,
		engine: engine,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/_health", s.HandleHealthCheck)

	e.POST("/classify", s.HandleClassify)

	e.POST("/mute", s.HandleMute)
	e.POST("/unmute", s.HandleUnmute)
	e.POST("/ban", s.HandleBan)
	e.POST("/unban", s.HandleUnban)
	e.POST("/warn", s.HandleWarn)
	e.POST("/warnings/clear", s.HandleClearWarnings)

	e.POST("/promote", s.HandlePromote)
	e.POST("/demote", s.HandleDemote)

	e.POST("/rules/words", s.HandleAddBannedWord)
	e.POST("/rules/links", s.HandleAddBannedLink)

	e.GET("/mutes", s.HandleListMutes)
	e.GET("/bans", s.HandleListBans)
	e.GET("/admins", s.HandleListAdmins)
	e.GET("/moderators", s.HandleListModerators)
	e.GET("/warnings/:id", s.HandleGetWarnings)
	e.GET("/strikes/:id", s.HandleGetStrikes)
	e.GET("/modstats", s.HandleModStats)

	s.echo = e
	return s
}

func (s *Server) RunMetrics(listen string) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(listen, nil)
}

// Run serves the HTTP API until SIGINT or SIGTERM, then shuts down
// gracefully. The sanction sweeper runs alongside for the same lifetime.
func (s *Server) Run(bind string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if s.sweepInterval > 0 {
		go ledger.RunSweeper(ctx, s.engine.Ledger, s.logger, s.sweepInterval)
	}

	s.httpd = &http.Server{
		Handler:        s.echo,
		Addr:           bind,
		WriteTimeout:   time.Minute,
		ReadTimeout:    time.Minute,
		MaxHeaderBytes: 1 * (1024 * 1024),
	}

	s.logger.Info("starting server", "bind", bind)
	go func() {
		if err := s.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	quit := make(chan struct{})
	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-exitSignals
		s.logger.Info("received OS exit signal", "signal", sig)
		if err := s.Shutdown(); err != nil {
			s.logger.Error("HTTP server shutdown error", "err", err)
		}
		close(quit)
	}()
	<-quit
	s.logger.Info("graceful shutdown complete")
	return nil
}

func (s *Server) Shutdown() error {
	s.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpd.Shutdown(ctx)
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		s.logger.Warn("yagamerbot-http-internal-error", "err", err)
	}
	if !c.Response().Committed {
		c.JSON(code, GenericStatus{Daemon: "yagamerbot", Status: "error", Message: errorMessage})
	}
}

func (s *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "yagamerbot"})
}
