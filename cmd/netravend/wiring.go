package main

import (
	"time"

	"github.com/netraven-io/netraven/pkg/catalogue"
	"github.com/netraven-io/netraven/pkg/config"
	"github.com/netraven-io/netraven/pkg/devicecomm"
	"github.com/netraven-io/netraven/pkg/distlock"
	"github.com/netraven-io/netraven/pkg/gateway"
	"github.com/netraven-io/netraven/pkg/handlers"
	"github.com/netraven-io/netraven/pkg/logging"
	"github.com/netraven-io/netraven/pkg/pool"
	"github.com/netraven-io/netraven/pkg/protocol"
	"github.com/netraven-io/netraven/pkg/scheduler"
)

// app bundles the process's wired-together core services, built once by
// buildApp and shared by serve/run-once/adhoc.
type app struct {
	cfg       *config.Config
	catalogue *catalogue.Catalogue
	pool      *pool.Pool
	comm      *devicecomm.Service
	facade    *gateway.Facade
	scheduler *scheduler.Scheduler
}

// buildApp loads configuration and constructs every core service,
// registering the built-in backup/command_execution task handlers.
func buildApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if err := logging.Configure(logging.Config{Level: logLevel, JSON: logJSON}); err != nil {
		return nil, err
	}

	cat := catalogue.New()
	factory := protocol.NewFactory(cat)

	var locker *distlock.Locker
	if cfg.Pool.RedisAddr != "" {
		locker = distlock.New(cfg.Pool.RedisAddr, "")
	} else {
		locker = distlock.NewNoop()
	}

	p := pool.New(pool.Config{
		MaxSize:             cfg.Pool.MaxSize,
		MaxPerHost:          cfg.Pool.MaxPerHost,
		IdleTimeoutSeconds:  cfg.Pool.IdleTimeoutSeconds,
		CleanupIntervalSecs: cfg.Pool.CleanupIntervalSecs,
	}, factory, locker)

	comm := devicecomm.New(p)
	facade := gateway.NewFacade(comm, cat)

	sched := scheduler.New(scheduler.Config{
		NumWorkers:        cfg.Scheduler.NumWorkers,
		QueuePollInterval: time.Duration(cfg.Scheduler.QueuePollIntervalSecs * float64(time.Second)),
	})

	backupHandler := handlers.NewBackupHandler(cat, comm)
	commandHandler := handlers.NewCommandHandler(cat, comm)
	if err := sched.RegisterTaskHandler("backup", backupHandler); err != nil {
		return nil, err
	}
	if err := sched.RegisterTaskHandler("command_execution", commandHandler); err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		catalogue: cat,
		pool:      p,
		comm:      comm,
		facade:    facade,
		scheduler: sched,
	}, nil
}
