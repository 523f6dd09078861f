package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/gstbill_backend/config"
	"bitbucket.org/mmdatafocus/gstbill_backend/handlers"
	"bitbucket.org/mmdatafocus/gstbill_backend/middlewares"
	"bitbucket.org/mmdatafocus/gstbill_backend/models"
	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

const defaultPort = "8080"

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		for _, ginErr := range c.Errors {
			config.LogError(logger, "server.go", "customErrorLogger", c.Request.URL.Path, nil, ginErr.Err)
		}
	}
}

func registerRoutes(r *gin.Engine) {
	r.POST("/auth/login", handlers.LoginHandler)
	r.POST("/auth/logout", handlers.LogoutHandler)

	r.POST("/businesses", handlers.CreateBusinessHandler)
	r.GET("/businesses", handlers.ListBusinessesHandler)
	r.GET("/businesses/:id", handlers.GetBusinessHandler)
	r.PUT("/businesses/:id", handlers.UpdateBusinessHandler)

	// Everything below this point is scoped to the business-id header.
	scoped := r.Group("/", middlewares.RequireBusiness())

	scoped.POST("/products", handlers.CreateProductHandler)
	scoped.GET("/products", handlers.ListProductsHandler)
	scoped.GET("/products/:id", handlers.GetProductHandler)
	scoped.PUT("/products/:id", handlers.UpdateProductHandler)
	scoped.DELETE("/products/:id", handlers.DeleteProductHandler)

	scoped.POST("/parties", handlers.CreatePartyHandler)
	scoped.GET("/parties", handlers.ListPartiesHandler)
	scoped.GET("/parties/:id", handlers.GetPartyHandler)
	scoped.PUT("/parties/:id", handlers.UpdatePartyHandler)
	scoped.DELETE("/parties/:id", handlers.DeletePartyHandler)

	scoped.POST("/invoices", handlers.CreateInvoiceHandler)
	scoped.GET("/invoices", handlers.ListInvoicesHandler)
	scoped.GET("/invoices/:id", handlers.GetInvoiceHandler)
	scoped.PUT("/invoices/:id", handlers.UpdateInvoiceHandler)
	scoped.DELETE("/invoices/:id", handlers.DeleteInvoiceHandler)

	scoped.POST("/quotations", handlers.CreateQuotationHandler)
	scoped.GET("/quotations", handlers.ListQuotationsHandler)
	scoped.GET("/quotations/:id", handlers.GetQuotationHandler)
	scoped.PUT("/quotations/:id", handlers.UpdateQuotationHandler)
	scoped.DELETE("/quotations/:id", handlers.DeleteQuotationHandler)

	scoped.POST("/receipts", handlers.CreateReceiptHandler)
	scoped.GET("/receipts", handlers.ListReceiptsHandler)
	scoped.GET("/receipts/:id", handlers.GetReceiptHandler)
	scoped.PUT("/receipts/:id", handlers.UpdateReceiptHandler)
	scoped.DELETE("/receipts/:id", handlers.DeleteReceiptHandler)

	scoped.POST("/delivery-challans", handlers.CreateDeliveryChallanHandler)
	scoped.GET("/delivery-challans", handlers.ListDeliveryChallansHandler)
	scoped.GET("/delivery-challans/:id", handlers.GetDeliveryChallanHandler)
	scoped.PUT("/delivery-challans/:id", handlers.UpdateDeliveryChallanHandler)
	scoped.DELETE("/delivery-challans/:id", handlers.DeleteDeliveryChallanHandler)

	scoped.POST("/stock/adjustments", handlers.AdjustStockHandler)
	scoped.GET("/stock/movements/:productId", handlers.ListStockMovementsHandler)
	scoped.GET("/stock/movements/:productId/export", handlers.ExportStockMovementsHandler)
	scoped.GET("/inventory-settings", handlers.GetInventorySettingsHandler)
	scoped.PUT("/inventory-settings", handlers.UpdateInventorySettingsHandler)
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "business-id", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	registerRoutes(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow running migrations as a
	// separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("shutdown error: " + err.Error())
	}
}
