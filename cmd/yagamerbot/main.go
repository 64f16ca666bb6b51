package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"

	"github.com/deanogram/yagamerbot2.0/moderation/cachestore"
	"github.com/deanogram/yagamerbot2.0/moderation/ledger"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "yagamerbot",
		Usage:   "community chat moderation daemon",
		Version: versioninfo.Short(),
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Value:   "sqlite://data/yagamerbot/moderation.db",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.IntFlag{
			Name:    "max-db-connections",
			Value:   40,
			EnvVars: []string{"MAX_DB_CONNECTIONS"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; empty means fully in-process state",
			EnvVars: []string{"REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "sets-file-json",
			Usage:   "file path of JSON file containing initial banned word/link sets",
			EnvVars: []string{"SETS_FILE_JSON"},
		},
		&cli.Int64Flag{
			Name:    "owner-id",
			Usage:   "user ID of the community owner; 0 disables owner-gated operations",
			EnvVars: []string{"OWNER_ID"},
		},
		&cli.StringFlag{
			Name:    "bind",
			Usage:   "IP or address, and port, to listen on for HTTP APIs",
			Value:   ":3999",
			EnvVars: []string{"YAGAMERBOT_BIND"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3998",
			EnvVars: []string{"YAGAMERBOT_METRICS_LISTEN"},
		},
		&cli.DurationFlag{
			Name:    "min-interval",
			Usage:   "minimum gap between accepted messages from one user",
			Value:   3 * time.Second,
			EnvVars: []string{"YAGAMERBOT_MIN_INTERVAL"},
		},
		&cli.IntFlag{
			Name:    "daily-cap",
			Usage:   "messages allowed per user per UTC day",
			Value:   10,
			EnvVars: []string{"YAGAMERBOT_DAILY_CAP"},
		},
		&cli.IntFlag{
			Name:    "flood-count",
			Usage:   "messages inside the flood window which count as flooding",
			Value:   5,
			EnvVars: []string{"YAGAMERBOT_FLOOD_COUNT"},
		},
		&cli.DurationFlag{
			Name:    "flood-window",
			Value:   10 * time.Second,
			EnvVars: []string{"YAGAMERBOT_FLOOD_WINDOW"},
		},
		&cli.Float64Flag{
			Name:    "caps-ratio",
			Usage:   "uppercase ratio at or above which a message counts as shouting",
			Value:   0.9,
			EnvVars: []string{"YAGAMERBOT_CAPS_RATIO"},
		},
		&cli.IntFlag{
			Name:    "min-emoji",
			Usage:   "emoji count at or above which a shouting message is denied",
			Value:   3,
			EnvVars: []string{"YAGAMERBOT_MIN_EMOJI"},
		},
		&cli.IntFlag{
			Name:    "warn-threshold",
			Usage:   "warning count at which the automatic mute fires",
			Value:   4,
			EnvVars: []string{"YAGAMERBOT_WARN_THRESHOLD"},
		},
		&cli.DurationFlag{
			Name:    "auto-mute-duration",
			Value:   24 * time.Hour,
			EnvVars: []string{"YAGAMERBOT_AUTO_MUTE_DURATION"},
		},
		&cli.DurationFlag{
			Name:    "sweep-interval",
			Usage:   "how often to purge expired sanction rows",
			Value:   time.Hour,
			EnvVars: []string{"YAGAMERBOT_SWEEP_INTERVAL"},
		},
		&cli.DurationFlag{
			Name:    "stats-cache-ttl",
			Usage:   "how long a rendered mod-stats report stays cached",
			Value:   cachestore.DefaultStatsTTL,
			EnvVars: []string{"YAGAMERBOT_STATS_CACHE_TTL"},
		},
	},
	Action: func(cctx *cli.Context) error {
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		db, err := ledger.SetupDatabase(cctx.String("database-url"), cctx.Int("max-db-connections"))
		if err != nil {
			return err
		}

		srv, err := NewServer(db, Config{
			Logger:           logger,
			RedisURL:         cctx.String("redis-url"),
			SetsFileJSON:     cctx.String("sets-file-json"),
			OwnerID:          cctx.Int64("owner-id"),
			MinInterval:      cctx.Duration("min-interval"),
			DailyCap:         cctx.Int("daily-cap"),
			FloodCount:       cctx.Int("flood-count"),
			FloodWindow:      cctx.Duration("flood-window"),
			CapsRatio:        cctx.Float64("caps-ratio"),
			MinEmoji:         cctx.Int("min-emoji"),
			WarnThreshold:    cctx.Int("warn-threshold"),
			AutoMuteDuration: cctx.Duration("auto-mute-duration"),
			SweepInterval:    cctx.Duration("sweep-interval"),
			StatsCacheTTL:    cctx.Duration("stats-cache-ttl"),
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				os.Exit(-1)
			}
		}()

		return srv.Run(cctx.String("bind"))
	},
}
