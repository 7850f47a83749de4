package cart

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

func TestCartAddAccumulates(t *testing.T) {
	c := Cart{}
	c.Add(7, 2)
	c.Add(7, 3)
	assert.Equal(t, 5, c.Quantity(7))

	c.Add(9, 0) // below 1 counts as 1
	assert.Equal(t, 1, c.Quantity(9))
	c.Add(9, -5)
	assert.Equal(t, 2, c.Quantity(9))
}

func TestCartSetAndRemove(t *testing.T) {
	c := Cart{}
	c.Add(3, 4)
	c.Set(3, 2)
	assert.Equal(t, 2, c.Quantity(3))

	c.Set(3, 0) // zero removes the line
	assert.Equal(t, 0, c.Quantity(3))
	assert.Empty(t, c.ProductIDs())

	c.Add(5, 1)
	c.Remove(5)
	assert.Empty(t, c.ProductIDs())
}

func TestSummarizePricesAgainstCatalog(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Product{Name: "Rice 1kg", Price: 80, DiscountPrice: 5, StockQuantity: 10, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Product{Name: "Soap", Price: 30, StockQuantity: 4, IsActive: true}).Error)

	c := Cart{}
	c.Add(1, 2)
	c.Add(2, 1)

	summary, err := Summarize(db, c)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)
	assert.InDelta(t, 2*75+30, summary.Total, 0.001)

	for _, line := range summary.Lines {
		if line.Product.Name == "Rice 1kg" {
			assert.InDelta(t, 75, line.UnitPrice, 0.001)
			assert.InDelta(t, 150, line.Subtotal, 0.001)
		}
	}
}

func TestSummarizeDropsVanishedProducts(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Product{Name: "Soap", Price: 30, StockQuantity: 4, IsActive: true}).Error)

	c := Cart{}
	c.Add(1, 1)
	c.Add(99, 5) // no such product

	summary, err := Summarize(db, c)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.InDelta(t, 30, summary.Total, 0.001)
}

func TestSummarizeEmptyCart(t *testing.T) {
	db := newTestDB(t)
	summary, err := Summarize(db, Cart{})
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	assert.Zero(t, summary.Total)
}
