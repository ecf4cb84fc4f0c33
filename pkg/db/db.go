package db

import (
	"log"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	constant "liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

func GetInstance(dialector gorm.Dialector) *DB {
	var logger = constant.GetLogger()
	once.Do(func() {
		conn, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}

		logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

		instance = &DB{Conn: conn}

		if err := instance.Conn.AutoMigrate(&models.Reading{}, &models.APIToken{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		if err := MigrateLegacyStatuses(instance.Conn); err != nil {
			log.Fatal("Failed to migrate legacy status labels:", err)
		}

		logger.Info("Database migration completed")

		if dialector.Name() == "sqlite" {
			if err := instance.Conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
				log.Fatal("Failed to set sqlite journal mode", err)
			}
		}
	})
	return instance
}

// MigrateLegacyStatuses rewrites readings stored with the legacy
// "Falla Baja"/"Falla Alta" labels to the canonical vocabulary.
func MigrateLegacyStatuses(conn *gorm.DB) error {
	logger := constant.GetLogger()

	for legacy, canonical := range models.LegacyStatusMigrations() {
		result := conn.Model(&models.Reading{}).
			Where("estatus = ?", legacy).
			Update("estatus", canonical)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			logger.Info("Migrated legacy status labels",
				zap.String("from", legacy),
				zap.String("to", canonical),
				zap.Int64("rows", result.RowsAffected))
		}
	}
	return nil
}

// SeedToken inserts a token valid for ttl unless it already exists. Tokens
// are normally provisioned out of band; this exists for local development.
func SeedToken(conn *gorm.DB, token string, ttl time.Duration) error {
	seed := models.APIToken{Token: token, ExpiresAt: time.Now().Add(ttl)}
	return conn.Where(models.APIToken{Token: token}).FirstOrCreate(&seed).Error
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(constant.EnvKeyIOTDbPath); !found {
		dbPath = "pressure.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

func UsePostgresDialector(dsn string) gorm.Dialector {
	return postgres.Open(dsn)
}
