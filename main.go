package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fidelidadeAPI/config"
	"fidelidadeAPI/database"
	"fidelidadeAPI/handlers"
	"fidelidadeAPI/middleware"
	"fidelidadeAPI/services"
)

var (
	dbPool            *pgxpool.Pool
	logger            *zap.Logger
	authService       *services.AuthService
	customerService   *services.CustomerService
	visitService      *services.VisitService
	campaignService   *services.CampaignService
	rewardService     *services.RewardService
	redemptionService *services.RedemptionService
	dashboardService  *services.DashboardService
)

func init() {
	if err := config.Load(); err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPool, err = database.Connect(ctx, config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	if err := database.Migrate(ctx, dbPool); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	if err := database.SeedAdmin(ctx, dbPool, config.AppConfig.AdminPassword); err != nil {
		logger.Fatal("admin seed failed", zap.Error(err))
	}
	logger.Info("connected to PostgreSQL")

	authService = services.NewAuthService(dbPool, logger)
	customerService = services.NewCustomerService(dbPool, logger)
	visitService = services.NewVisitService(dbPool, logger)
	campaignService = services.NewCampaignService(dbPool, logger)
	rewardService = services.NewRewardService(dbPool, logger)
	redemptionService = services.NewRedemptionService(dbPool, logger)
	dashboardService = services.NewDashboardService(dbPool, logger)

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		logger.Info("closing database connection pool")
		dbPool.Close()
		_ = logger.Sync()
	}()

	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	visitHandler := handlers.NewVisitHandler(visitService)
	campaignHandler := handlers.NewCampaignHandler(campaignService)
	rewardHandler := handlers.NewRewardHandler(rewardService)
	redemptionHandler := handlers.NewRedemptionHandler(redemptionService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	r := mux.NewRouter()

	go middleware.CleanupClients()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "fidelidade-api"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)

	protected.HandleFunc("/auth/me", authHandler.Me).Methods("GET")
	protected.HandleFunc("/auth/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/auth/usuarios", authHandler.ListUsers).Methods("GET")
	protected.HandleFunc("/auth/usuarios", authHandler.CreateUser).Methods("POST")
	protected.HandleFunc("/auth/usuarios/{id}", authHandler.UpdateUser).Methods("PUT")
	protected.HandleFunc("/auth/usuarios/{id}", authHandler.DeleteUser).Methods("DELETE")

	protected.HandleFunc("/clientes", customerHandler.List).Methods("GET")
	protected.HandleFunc("/clientes", customerHandler.Create).Methods("POST")
	protected.HandleFunc("/clientes/buscar-cpf/{cpf}", customerHandler.GetByCPF).Methods("GET")
	protected.HandleFunc("/clientes/{id}", customerHandler.Get).Methods("GET")
	protected.HandleFunc("/clientes/{id}", customerHandler.Update).Methods("PUT")
	protected.HandleFunc("/clientes/{id}", customerHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/visitas", visitHandler.List).Methods("GET")
	protected.HandleFunc("/visitas", visitHandler.Create).Methods("POST")
	protected.HandleFunc("/visitas/cliente/{clienteId}", visitHandler.ListByCustomer).Methods("GET")
	protected.HandleFunc("/visitas/{id}", visitHandler.Update).Methods("PUT")
	protected.HandleFunc("/visitas/{id}", visitHandler.Delete).Methods("DELETE")
	protected.HandleFunc("/pontos/cliente/{clienteId}", visitHandler.Ledger).Methods("GET")

	protected.HandleFunc("/campanhas", campaignHandler.List).Methods("GET")
	protected.HandleFunc("/campanhas", campaignHandler.Create).Methods("POST")
	protected.HandleFunc("/campanhas/{id}", campaignHandler.Get).Methods("GET")
	protected.HandleFunc("/campanhas/{id}", campaignHandler.Update).Methods("PUT")
	protected.HandleFunc("/campanhas/{id}", campaignHandler.Delete).Methods("DELETE")

	protected.HandleFunc("/produtos", rewardHandler.ListProducts).Methods("GET")
	protected.HandleFunc("/produtos", rewardHandler.CreateProduct).Methods("POST")
	protected.HandleFunc("/brindes", rewardHandler.ListOffers).Methods("GET")
	protected.HandleFunc("/brindes", rewardHandler.CreateOffer).Methods("POST")
	protected.HandleFunc("/brindes/{id}", rewardHandler.UpdateOffer).Methods("PUT")
	protected.HandleFunc("/brindes/{id}", rewardHandler.DeleteOffer).Methods("DELETE")

	protected.HandleFunc("/resgates", redemptionHandler.List).Methods("GET")
	protected.HandleFunc("/resgates", redemptionHandler.Create).Methods("POST")
	protected.HandleFunc("/resgates/cliente/{clienteId}", redemptionHandler.ListByCustomer).Methods("GET")
	protected.HandleFunc("/resgates/verificar-elegibilidade", redemptionHandler.CheckEligibility).Methods("POST")
	protected.HandleFunc("/resgates/brindes-disponiveis/{clienteId}", redemptionHandler.AvailableOffers).Methods("GET")
	protected.HandleFunc("/resgates/voucher/{codigo}", redemptionHandler.GetByVoucher).Methods("GET")
	protected.HandleFunc("/resgates/{id}/entregar", redemptionHandler.MarkDelivered).Methods("PUT")
	protected.HandleFunc("/resgates/{id}/cancelar", redemptionHandler.Cancel).Methods("PUT")

	protected.HandleFunc("/dashboard/resumo", dashboardHandler.Summary).Methods("GET")
	protected.HandleFunc("/dashboard/top-clientes", dashboardHandler.TopCustomers).Methods("GET")
	protected.HandleFunc("/dashboard/visitas-periodo", dashboardHandler.VisitsByPeriod).Methods("GET")
	protected.HandleFunc("/dashboard/distribuicao-niveis", dashboardHandler.TierDistribution).Methods("GET")
	protected.HandleFunc("/dashboard/resgates-status", dashboardHandler.RedemptionsByStatus).Methods("GET")
	protected.HandleFunc("/relatorios/clientes-detalhado", dashboardHandler.CustomerReport).Methods("GET")
	protected.HandleFunc("/relatorios/campanhas-performance", dashboardHandler.CampaignPerformance).Methods("GET")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := ":" + config.AppConfig.ServerPort

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	logger.Info("got signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server shutdown complete")
}
