package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/spacious-team/investbook-sub001/src/config"
	"github.com/spacious-team/investbook-sub001/src/database"
	"github.com/spacious-team/investbook-sub001/src/handlers"
	"github.com/spacious-team/investbook-sub001/src/logger"
	"github.com/spacious-team/investbook-sub001/src/parsers"
	"github.com/spacious-team/investbook-sub001/src/processors"
	"github.com/spacious-team/investbook-sub001/src/services"
)

// Report parsing is CPU and disk heavy; the upload endpoint is
// throttled so one client cannot saturate the server.
func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Investbook import server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)

	rateService, err := processors.NewRateService(database.NewSQLRateStore(database.DB))
	if err != nil {
		logger.L.Error("Failed to initialize exchange rate service", "error", err)
		stdlog.Fatalf("Failed to initialize exchange rate service: %v", err)
	}
	if err := rateService.LoadHistoricalRates(config.Cfg.HistoricalRatesPath); err != nil {
		logger.L.Error("Failed to load historical rates", "error", err)
	}

	logger.L.Info("Initializing services and handlers...")
	registrar := parsers.NewSecurityRegistrar(database.NewSQLSecurityStore(database.DB))
	uploadService := services.NewUploadService(
		registrar,
		rateService,
		database.NewRecordStore(database.DB),
		config.Cfg.ReportBackupDir,
	)
	uploadHandler := handlers.NewUploadHandler(uploadService)

	logger.L.Info("Configuring routes...")
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/reports/upload", uploadHandler.HandleUpload)
	mux.HandleFunc("GET /api/reports/upload/latest", uploadHandler.HandleGetLatestUploadResult)
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Investbook import server is running"})
	})

	limiter := rate.NewLimiter(rate.Limit(config.Cfg.UploadRatePerSecond), config.Cfg.UploadRateBurst)
	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      rateLimitMiddleware(limiter, mux),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	}
	logger.L.Info("Server stopped gracefully.")
}
