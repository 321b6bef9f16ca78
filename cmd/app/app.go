package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vietanh2810/event-program-api/internal/api"
	"github.com/vietanh2810/event-program-api/internal/config"
	"github.com/vietanh2810/event-program-api/internal/db"
	"github.com/vietanh2810/event-program-api/internal/logger"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	schedule, err := conf.Schedule.Domain()
	if err != nil {
		return fmt.Errorf("failed to read schedule -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	s := api.NewServer(conf, schedule, postgresDB)

	if err = s.Seed(context.Background()); err != nil {
		return fmt.Errorf("failed to seed initial data -> %w", err)
	}

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr),
		zap.Stringer("window_start", schedule.WindowStart),
		zap.Stringer("window_end", schedule.WindowEnd),
		zap.Duration("slot", schedule.SlotDuration),
		zap.Duration("break", schedule.BreakDuration),
	)
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}
