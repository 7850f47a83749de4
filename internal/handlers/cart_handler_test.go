package handlers

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"kirana-pos/internal/audit"
	"kirana-pos/internal/cart"
	"kirana-pos/internal/catalog"
	"kirana-pos/internal/customers"
	"kirana-pos/internal/database"
	"kirana-pos/internal/models"
	"kirana-pos/internal/orders"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	gob.Register(map[string]int{})
}

func newCartRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	auditLog := audit.NewLogger(db)
	customerSvc := customers.NewService(db)
	engine := orders.NewEngine(db, auditLog, customerSvc)
	catalogSvc := catalog.NewService(db, auditLog)
	h := NewCartHandler(db, engine, catalogSvc)

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/cart", h.Summary)
	r.POST("/cart/add", h.Add)
	r.POST("/cart/update", h.Update)
	r.POST("/cart/remove", h.Remove)
	r.POST("/checkout", h.Checkout)
	return r, db
}

// doForm posts form values, carrying the session cookie between calls.
func doForm(r *gin.Engine, cookies []string, path string, form url.Values) (*httptest.ResponseRecorder, []string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.Header.Add("Cookie", c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if set := w.Result().Header["Set-Cookie"]; len(set) > 0 {
		cookies = set
	}
	return w, cookies
}

func doJSON(r *gin.Engine, cookies []string, method, path, body string) (*httptest.ResponseRecorder, []string) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.Header.Add("Cookie", c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if set := w.Result().Header["Set-Cookie"]; len(set) > 0 {
		cookies = set
	}
	return w, cookies
}

func TestCartCheckoutFlow(t *testing.T) {
	r, db := newCartRouter(t)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", Price: 80, DiscountPrice: 5, StockQuantity: 10, IsActive: true}).Error)

	var cookies []string
	w, cookies := doForm(r, cookies, "/cart/add", url.Values{"product_id": {"1"}, "quantity": {"2"}})
	require.Equal(t, http.StatusOK, w.Code)

	// The cart survives into the next request via the session cookie.
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	for _, c := range cookies {
		req.Header.Add("Cookie", c)
	}
	get := httptest.NewRecorder()
	r.ServeHTTP(get, req)
	require.Equal(t, http.StatusOK, get.Code)

	var summary cart.Summary
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &summary))
	require.Len(t, summary.Lines, 1)
	assert.InDelta(t, 150, summary.Total, 0.001)

	w, cookies = doJSON(r, cookies, http.MethodPost, "/checkout",
		`{"name":"Ravi","phone":"111","payments":[{"method":"cash","amount":"150"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 150, resp["total"].(float64), 0.001)
	assert.NotContains(t, resp, "warning")

	var order models.Order
	require.NoError(t, db.Preload("Items").First(&order).Error)
	assert.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)

	// Checkout cleared the cart: a second checkout finds it empty.
	w, _ = doJSON(r, cookies, http.MethodPost, "/checkout", `{"name":"Ravi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutPaymentMismatchWarns(t *testing.T) {
	r, db := newCartRouter(t)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", Price: 100, StockQuantity: 10, IsActive: true}).Error)

	var cookies []string
	_, cookies = doForm(r, cookies, "/cart/add", url.Values{"product_id": {"1"}})

	w, _ := doJSON(r, cookies, http.MethodPost, "/checkout",
		`{"name":"Ravi","payments":[{"method":"cash","amount":"60"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "warning")
}

func TestCheckoutRequiresName(t *testing.T) {
	r, db := newCartRouter(t)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", Price: 100, StockQuantity: 10, IsActive: true}).Error)

	var cookies []string
	_, cookies = doForm(r, cookies, "/cart/add", url.Values{"product_id": {"1"}})

	w, _ := doJSON(r, cookies, http.MethodPost, "/checkout", `{"phone":"111"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartUpdateAndRemove(t *testing.T) {
	r, db := newCartRouter(t)
	require.NoError(t, db.Create(&models.Product{Name: "Rice", Price: 100, StockQuantity: 10, IsActive: true}).Error)

	var cookies []string
	_, cookies = doForm(r, cookies, "/cart/add", url.Values{"product_id": {"1"}, "quantity": {"3"}})
	_, cookies = doForm(r, cookies, "/cart/update", url.Values{"product_id": {"1"}, "quantity": {"1"}})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	for _, c := range cookies {
		req.Header.Add("Cookie", c)
	}
	get := httptest.NewRecorder()
	r.ServeHTTP(get, req)

	var summary cart.Summary
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &summary))
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, 1, summary.Lines[0].Quantity)

	_, cookies = doForm(r, cookies, "/cart/remove", url.Values{"product_id": {"1"}})
	w, _ := doJSON(r, cookies, http.MethodPost, "/checkout", `{"name":"Ravi"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
