package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/inversure/backend/src/config"
	"github.com/username/inversure/backend/src/database"
	"github.com/username/inversure/backend/src/handlers"
	"github.com/username/inversure/backend/src/logger"
	"github.com/username/inversure/backend/src/processors"
	"github.com/username/inversure/backend/src/security"
	"github.com/username/inversure/backend/src/services"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Inversure backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	emailService := services.NewEmailService()
	projectService := services.NewProjectService(database.DB, processors.DefaultPolicy(), emailService)

	userHandler := handlers.NewUserHandler(authService)
	proyectoHandler := handlers.NewProyectoHandler(projectService)
	gastoHandler := handlers.NewGastoHandler(projectService)
	ingresoHandler := handlers.NewIngresoHandler(projectService)
	documentoHandler := handlers.NewDocumentoHandler(projectService, config.Cfg.DocumentStoragePath)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public routes.
	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken)

	csrfProtection := handlers.CSRFMiddleware()
	applyCsrf := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(handler)
	}
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("POST /api/auth/login", applyCsrf(userHandler.LoginUserHandler))
	apiRouter.Handle("POST /api/auth/register", applyCsrf(userHandler.RegisterUserHandler))
	apiRouter.Handle("POST /api/auth/logout", applyCsrfAndAuth(userHandler.LogoutUserHandler))

	// Projects and their derived dashboards.
	apiRouter.Handle("GET /api/proyectos", applyCsrfAndAuth(proyectoHandler.ListProyectosHandler))
	apiRouter.Handle("POST /api/proyectos", applyCsrfAndAuth(proyectoHandler.CreateProyectoHandler))
	apiRouter.Handle("POST /api/proyectos/{proyectoID}/guardar", applyCsrfAndAuth(proyectoHandler.GuardarHandler))
	apiRouter.Handle("GET /api/proyectos/{proyectoID}/snapshot", applyCsrfAndAuth(proyectoHandler.SnapshotHandler))
	apiRouter.Handle("GET /api/proyectos/{proyectoID}/resumen", applyCsrfAndAuth(proyectoHandler.ResumenHandler))
	apiRouter.Handle("GET /api/proyectos/{proyectoID}/captacion", applyCsrfAndAuth(proyectoHandler.CaptacionHandler))
	apiRouter.Handle("POST /api/proyectos/{proyectoID}/estado", applyCsrfAndAuth(proyectoHandler.CambiarEstadoHandler))

	// Expense ledger. POST also carries PATCH/DELETE for clients stuck
	// behind method-stripping proxies.
	apiRouter.Handle("GET /api/proyectos/{proyectoID}/gastos", applyCsrfAndAuth(gastoHandler.ListGastosHandler))
	apiRouter.Handle("POST /api/proyectos/{proyectoID}/gastos", applyCsrfAndAuth(gastoHandler.CreateGastoHandler))
	apiRouter.Handle("PATCH /api/proyectos/{proyectoID}/gastos/{gastoID}", applyCsrfAndAuth(gastoHandler.UpdateGastoHandler))
	apiRouter.Handle("DELETE /api/proyectos/{proyectoID}/gastos/{gastoID}", applyCsrfAndAuth(gastoHandler.DeleteGastoHandler))
	apiRouter.Handle("POST /api/proyectos/{proyectoID}/gastos/{gastoID}", applyCsrfAndAuth(gastoHandler.CreateGastoHandler))

	// Income ledger.
	apiRouter.Handle("GET /api/proyectos/{proyectoID}/ingresos", applyCsrfAndAuth(ingresoHandler.ListIngresosHandler))
	apiRouter.Handle("POST /api/proyectos/{proyectoID}/ingresos", applyCsrfAndAuth(ingresoHandler.CreateIngresoHandler))
	apiRouter.Handle("PATCH /api/proyectos/{proyectoID}/ingresos/{ingresoID}", applyCsrfAndAuth(ingresoHandler.UpdateIngresoHandler))
	apiRouter.Handle("DELETE /api/proyectos/{proyectoID}/ingresos/{ingresoID}", applyCsrfAndAuth(ingresoHandler.DeleteIngresoHandler))
	apiRouter.Handle("POST /api/proyectos/{proyectoID}/ingresos/{ingresoID}", applyCsrfAndAuth(ingresoHandler.CreateIngresoHandler))

	// Invoice attachments.
	apiRouter.Handle("POST /api/proyectos/{proyectoID}/gastos/{gastoID}/factura", applyCsrfAndAuth(documentoHandler.AttachFacturaHandler))
	apiRouter.Handle("DELETE /api/proyectos/{proyectoID}/gastos/{gastoID}/factura", applyCsrfAndAuth(documentoHandler.DetachFacturaHandler))
	apiRouter.Handle("GET /api/documentos/{documentoID}/descargar", applyCsrfAndAuth(documentoHandler.DescargarHandler))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Inversure backend is running"})
		} else if !strings.HasPrefix(r.URL.Path, "/api/") {
			logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	logger.L.Info("Applying global middleware...")
	cors := handlers.CORSMiddleware(config.Cfg.CORSAllowedOrigin)
	rateLimit := handlers.RateLimitMiddleware(rate.Every(100*time.Millisecond), 30)
	finalHandler := cors(rateLimit(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
