package db

import (
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"approvalflow-backend/internal/domain/chain"
	"approvalflow-backend/internal/domain/request"
	"approvalflow-backend/internal/domain/task"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector opens a pooled gorm handle over any dialector;
// tests inject a mocked connection here.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Println("gorm: connected")
	return db, nil
}

// Migrate creates/updates the approval engine schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&chain.ApprovalChain{},
		&chain.ApprovalLevel{},
		&request.ApprovalRequest{},
		&request.RequestLevel{},
		&request.ApprovalHistory{},
		&task.WorkItem{},
	)
}
