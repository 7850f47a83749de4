package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"kirana-pos/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Connect opens the shop database and syncs the schema.
//
// DB_DSN selects the backend: a MySQL DSN for a real deployment, or a
// plain file path ending in .db/.sqlite3 (DB_DRIVER=sqlite also forces it)
// for a single-machine shop. MySQL gets a short retry loop because the
// database container usually comes up a few seconds after us.
func Connect() (*gorm.DB, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		return nil, fmt.Errorf("DB_DSN not set; configure your database in .env")
	}

	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var db *gorm.DB
	var err error

	if useSQLite(dsn) {
		db, err = gorm.Open(sqlite.Open(dsn), cfg)
	} else {
		for i := 0; i < 5; i++ {
			db, err = gorm.Open(mysql.Open(dsn), cfg)
			if err == nil {
				break
			}
			log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database connected and schema synced")
	return db, nil
}

func useSQLite(dsn string) bool {
	if os.Getenv("DB_DRIVER") == "sqlite" {
		return true
	}
	for _, suffix := range []string{".db", ".sqlite", ".sqlite3"} {
		if len(dsn) > len(suffix) && dsn[len(dsn)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// LockForUpdate adds a SELECT ... FOR UPDATE clause so concurrent writers
// serialize on the same rows. SQLite has no row locks (the whole file
// locks on write), so the clause is skipped there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Migrate auto-migrates every model the shop persists. Package tests reuse
// it against an in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderPayment{},
		&models.OrderReturn{},
		&models.OrderReturnItem{},
		&models.Customer{},
		&models.CreditEntry{},
		&models.Wholesaler{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.MessageTemplate{},
		&models.AuditLog{},
		&models.Expense{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
