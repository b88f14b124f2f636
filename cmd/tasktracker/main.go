package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"tasktracker/internal/config"
	"tasktracker/internal/repository"
	"tasktracker/internal/server"
	"tasktracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("timezone: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	taskRepo := repository.NewTaskRepository(db)
	taskSvc := service.NewTaskService(taskRepo, loc)
	sweeper := service.NewSweeperService(taskSvc, taskRepo, cfg.OverduePolicy, log)

	scheduler := service.NewSchedulerService(loc, log)
	if cfg.SweepInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.SweepInterval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			n, err := sweeper.SweepOverdue(jobCtx)
			if err != nil {
				log.WithError(err).Error("overdue sweep")
				return
			}
			if n > 0 {
				log.WithField("handled", n).Info("overdue sweep")
			}
		}); err != nil {
			log.Fatalf("schedule overdue sweep: %v", err)
		}
	}
	if cfg.RolloverTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.RolloverTime, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			n, err := sweeper.RolloverDaily(jobCtx)
			if err != nil {
				log.WithError(err).Error("daily rollover")
				return
			}
			log.WithField("rolled", n).Info("daily rollover")
		}); err != nil {
			log.Fatalf("schedule daily rollover: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := server.New(cfg.HTTPAddr, taskSvc, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	log.WithField("addr", cfg.HTTPAddr).Info("task tracker started")

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server: %v", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	log.Info("shutdown complete")
}
