package main

import (
	"encoding/gob"
	"log"
	"os"
	"time"

	"kirana-pos/internal/audit"
	"kirana-pos/internal/catalog"
	"kirana-pos/internal/credit"
	"kirana-pos/internal/customers"
	"kirana-pos/internal/database"
	"kirana-pos/internal/expenses"
	"kirana-pos/internal/handlers"
	"kirana-pos/internal/middleware"
	"kirana-pos/internal/orders"
	"kirana-pos/internal/purchasing"
	"kirana-pos/internal/reports"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	db, err := database.Connect()
	if err != nil {
		log.Fatal(err)
	}

	shopName := os.Getenv("SHOP_NAME")
	if shopName == "" {
		shopName = "Kirana POS"
	}

	auditLog := audit.NewLogger(db)
	customerSvc := customers.NewService(db)
	catalogSvc := catalog.NewService(db, auditLog)
	orderEngine := orders.NewEngine(db, auditLog, customerSvc)
	creditLedger := credit.NewLedger(db, auditLog, customerSvc, shopName)
	purchaseEngine := purchasing.NewEngine(db, auditLog)
	expenseLedger := expenses.NewLedger(db)
	reportSvc := reports.NewService(db, expenseLedger)

	authH := handlers.NewAuthHandler(db)
	catalogH := handlers.NewCatalogHandler(catalogSvc)
	cartH := handlers.NewCartHandler(db, orderEngine, catalogSvc)
	orderH := handlers.NewOrderHandler(orderEngine)
	creditH := handlers.NewCreditHandler(creditLedger)
	purchaseH := handlers.NewPurchaseHandler(purchaseEngine)
	customerH := handlers.NewCustomerHandler(customerSvc)
	expenseH := handlers.NewExpenseHandler(expenseLedger)
	reportH := handlers.NewReportHandler(reportSvc, catalogSvc)
	auditH := handlers.NewAuditHandler(db)
	systemH := handlers.NewSystemHandler(db, shopName)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// The counter cart lives in the cookie session.
	gob.Register(map[string]int{})
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		sessionSecret = "kirana-pos-dev-session"
		log.Println("Warning: SESSION_SECRET not set, using dev default")
	}
	r.Use(sessions.Sessions("kirana_session", cookie.NewStore([]byte(sessionSecret))))

	r.GET("/health", systemH.Health)
	r.POST("/login", authH.Login)

	// Only opens if we explicitly allow it in .env
	if os.Getenv("ALLOW_REGISTRATION") == "true" {
		r.POST("/register", authH.Register)
		log.Println("WARNING: Registration route is OPEN. Disable this in production!")
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// Staff and admin: the counter surface.
		api.GET("/products", catalogH.ListProducts)
		api.GET("/products/scan/:code", catalogH.ScanProduct)

		api.GET("/cart", cartH.Summary)
		api.POST("/cart/add", cartH.Add)
		api.POST("/cart/scan", cartH.ScanAdd)
		api.POST("/cart/update", cartH.Update)
		api.POST("/cart/remove", cartH.Remove)
		api.POST("/checkout", cartH.Checkout)

		// Admin only: back office.
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin"))
		{
			admin.GET("/products/:id", catalogH.GetProduct)
			admin.POST("/products", catalogH.AddProduct)
			admin.PUT("/products/:id", catalogH.UpdateProduct)
			admin.DELETE("/products/:id", catalogH.DeleteProduct)
			admin.POST("/products/scan-stock", catalogH.ScanStockIncrement)
			admin.GET("/categories", catalogH.ListCategories)
			admin.POST("/categories", catalogH.UpsertCategory)
			admin.DELETE("/categories/:id", catalogH.DeleteCategory)

			admin.GET("/orders", orderH.List)
			admin.GET("/orders/:id", orderH.Get)
			admin.POST("/orders/:id/complete", orderH.Complete)
			admin.POST("/orders/:id/return", orderH.Return)

			admin.GET("/credit", creditH.List)
			admin.POST("/credit", creditH.Add)
			admin.POST("/credit/:id/pay", creditH.MarkPaid)
			admin.GET("/credit/reminders", creditH.Reminders)
			admin.GET("/credit/outstanding", creditH.Outstanding)

			admin.GET("/purchases/recent", purchaseH.Recent)
			admin.GET("/purchases/wholesalers", purchaseH.Wholesalers)
			admin.GET("/purchases/suggested", purchaseH.Suggested)
			admin.GET("/purchases/:id", purchaseH.Get)
			admin.POST("/purchases", purchaseH.Record)

			admin.GET("/customers", customerH.List)
			admin.POST("/customers", customerH.Save)
			admin.DELETE("/customers/:id", customerH.Delete)
			admin.GET("/customers/lookup", customerH.Lookup)
			admin.GET("/customers/suggest", customerH.Suggest)
			admin.GET("/customers/spend", customerH.Spend)
			admin.POST("/customers/:id/reminder-sent", customerH.ReminderSent)

			admin.GET("/expenses", expenseH.List)
			admin.POST("/expenses", expenseH.Add)

			admin.GET("/reports/dashboard", reportH.Dashboard)
			admin.GET("/reports/profit", reportH.Profit)
			admin.GET("/reports/trends", reportH.WeeklyTrends)
			admin.GET("/reports/valuation", reportH.Valuation)
			admin.GET("/reports/gst", reportH.GST)
			admin.GET("/reports/gst.csv", reportH.GSTCSV)
			admin.GET("/reports/gst.xlsx", reportH.GSTXLSX)

			admin.GET("/audit", auditH.List)
			admin.GET("/system/status", systemH.Health)
			admin.GET("/system/backup", systemH.Backup)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}
	log.Println("Server starting on " + baseURL)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
