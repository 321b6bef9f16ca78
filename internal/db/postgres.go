package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vietanh2810/event-program-api/internal/config"
	"github.com/vietanh2810/event-program-api/internal/repository/dao"
)

func OpenPostgres(conf *config.PostgresConfig) (*gorm.DB, error) {
	return OpenPostgresWithURL(conf.DSN())
}

// OpenPostgresWithURL accepts either a key=value DSN or a postgres:// URL and
// migrates the schema before returning.
func OpenPostgresWithURL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm.Open -> %w", err)
	}

	if err = dao.InitTables(db); err != nil {
		return nil, fmt.Errorf("dao.InitTables -> %w", err)
	}

	zap.L().Info("connected to postgres")

	return db, nil
}
