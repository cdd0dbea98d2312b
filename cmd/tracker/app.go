package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"task-tracker/internal/config"
	"task-tracker/internal/model"
	"task-tracker/internal/repository"
	"task-tracker/internal/service"
)

// app holds the services every command works with.
type app struct {
	cfg    config.Config
	log    *logrus.Logger
	clock  service.Clock
	tasks  *service.TaskService
	prefs  *service.PreferenceService
	events *service.EventService
	resets *service.ResetService
	board  *service.BoardService
	close  func() error

	// caughtUp counts tasks reopened by the startup catch-up.
	caughtUp int
}

func newApp(ctx context.Context, opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.store != "" {
		cfg.Store = strings.ToLower(opts.store)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	log := newLogger(cfg.LogLevel, logOut)

	kv, closeStore, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	clock := service.SystemClock{}
	tasks, err := service.NewTaskService(ctx, repository.NewTaskRepository(kv), clock, log)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	events, err := service.NewEventService(service.DefaultEventCatalog())
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	prefs := service.NewPreferenceService(repository.NewPreferenceRepository(kv), log)
	resets := service.NewResetService(tasks, clock, log)

	// Resets missed while no process was running apply before any command reads tasks.
	caughtUp, err := resets.CatchUp(ctx)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		clock:  clock,
		tasks:  tasks,
		prefs:  prefs,
		events: events,
		resets: resets,
		board:  service.NewBoardService(tasks, resets, events, prefs, clock, cfg.EventWindow, time.Local),
		close:  closeStore,

		caughtUp: caughtUp,
	}, nil
}

func newLogger(level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("log_level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// openStore returns the configured key-value backend and a function releasing it.
func openStore(cfg config.Config, log logrus.FieldLogger) (repository.KVStore, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store, tasks will not survive a restart")
		return repository.NewMemoryStore(), func() error { return nil }, nil

	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisAddr)
		if err != nil {
			opts = &redis.Options{Addr: cfg.RedisAddr}
		}
		if cfg.RedisPassword != "" {
			opts.Password = cfg.RedisPassword
		}
		if cfg.RedisDB != 0 {
			opts.DB = cfg.RedisDB
		}
		client := redis.NewClient(opts)
		log.WithField("addr", opts.Addr).Info("using redis store")
		return repository.NewRedisStore(client, cfg.RedisPrefix), client.Close, nil

	default:
		db, err := repository.NewDB(cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("db handle: %w", err)
		}
		log.WithField("path", cfg.DatabaseURL).Debug("using sqlite store")
		return repository.NewSQLiteStore(db), sqlDB.Close, nil
	}
}

// resolveTask accepts a task id or its 1-based number in list order.
func (a *app) resolveTask(ctx context.Context, ref string) (model.Task, error) {
	if task, ok := a.tasks.Get(ref); ok {
		return task, nil
	}
	n, err := strconv.Atoi(ref)
	if err != nil {
		return model.Task{}, fmt.Errorf("no task %q", ref)
	}
	var ordered []model.Task
	for _, col := range a.board.Snapshot(ctx).Columns {
		ordered = append(ordered, col.Tasks...)
	}
	if n < 1 || n > len(ordered) {
		return model.Task{}, fmt.Errorf("no task number %d", n)
	}
	return ordered[n-1], nil
}
