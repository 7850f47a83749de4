package audit

import (
	"fmt"
	"strings"
	"testing"

	"kirana-pos/internal/database"
	"kirana-pos/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestStockChangeRow(t *testing.T) {
	db := newTestDB(t)
	userID := uint(4)
	require.NoError(t, NewLogger(db).StockChange(&userID, 12, 10, 7))

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, models.AuditStockChange, row.Action)
	assert.Equal(t, "Product", row.Model)
	assert.Equal(t, uint(12), row.ObjectID)
	assert.Equal(t, "stock_quantity", row.Field)
	assert.Equal(t, "10", row.OldValue)
	assert.Equal(t, "7", row.NewValue)
	require.NotNil(t, row.UserID)
	assert.Equal(t, uint(4), *row.UserID)
}

func TestPriceChangeFormatsMoney(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, NewLogger(db).PriceChange(nil, 3, 49.5, 52))

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, models.AuditPriceChange, row.Action)
	assert.Equal(t, "49.50", row.OldValue)
	assert.Equal(t, "52.00", row.NewValue)
	assert.Nil(t, row.UserID)
}

func TestCreditPaidRow(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, NewLogger(db).CreditPaid(nil, 8))

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, models.AuditCreditPaid, row.Action)
	assert.Equal(t, "CreditEntry", row.Model)
	assert.Equal(t, "false", row.OldValue)
	assert.Equal(t, "true", row.NewValue)
}

func TestWithTxRollsBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	l := NewLogger(db)

	_ = db.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, l.WithTx(tx).StockChange(nil, 1, 5, 4))
		return fmt.Errorf("boom")
	})

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}
