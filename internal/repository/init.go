package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/interfaces"
	"github.com/customeros/cardstack/internal/models"
)

type Repositories struct {
	ContactRepository       interfaces.ContactRepository
	ContactImportRepository interfaces.ContactImportRepository
	HistoryRepository       interfaces.HistoryRepository
	TenantProfileRepository interfaces.TenantProfileRepository
}

func InitRepositories(cardstackDB *gorm.DB) *Repositories {
	return &Repositories{
		ContactRepository:       NewContactRepository(cardstackDB),
		ContactImportRepository: NewContactImportRepository(cardstackDB),
		HistoryRepository:       NewHistoryRepository(cardstackDB),
		TenantProfileRepository: NewTenantProfileRepository(cardstackDB),
	}
}

func MigrateCardstackDB(dbConfig *config.CardstackDatabaseConfig, cardstackDB *gorm.DB) error {
	db, err := cardstackDB.DB()
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(5)

	err = cardstackDB.AutoMigrate(
		&models.Contact{},
		&models.ContactImport{},
		&models.History{},
		&models.TenantProfile{},
	)

	db.SetMaxIdleConns(dbConfig.MaxIdleConn)
	db.SetMaxOpenConns(dbConfig.MaxConn)
	db.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
