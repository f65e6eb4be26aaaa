package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/willjrcristo/refresh-api/docs" // Importa a pasta docs gerada

	"github.com/willjrcristo/refresh-api/internal/config"
	httphandler "github.com/willjrcristo/refresh-api/internal/handler/http"
	"github.com/willjrcristo/refresh-api/internal/identity"
	"github.com/willjrcristo/refresh-api/internal/repository"
	"github.com/willjrcristo/refresh-api/internal/service"
)

// @title           Refresh API
// @version         1.0
// @description     API de planos e subscrições do Refresh.
// @termsOfService  http://swagger.io/terms/
//
// @contact.name   Will Cristo
// @contact.url    https://linkedin.com/in/willjrcristo
// @contact.email  willjrcristo@gmail.com
//
// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html
//
// @host      localhost:8080
// @BasePath  /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Access token do Supabase no formato "Bearer {token}"
func main() {
	if err := run(); err != nil {
		slog.Error("Erro fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- 1. CONFIGURAÇÃO E LOGGER ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Erro ao carregar a configuração", "error", err)
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	slog.Info("🚀 Iniciando a Refresh API...", "db_driver", cfg.DBDriver, "auth_mode", cfg.AuthMode)

	// Os clientes leem price como número.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. CONEXÃO COM O BANCO DE DADOS ---
	db, err := repository.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Erro ao inicializar o banco de dados", "error", err)
		return err
	}
	defer db.Close()
	slog.Info("💾 Conexão com o banco de dados estabelecida com sucesso.")

	// --- 3. INJEÇÃO DE DEPENDÊNCIAS (WIRING) ---
	// DB -> Repository -> Service -> Handler
	planStore := repository.NewPlanStore(db)
	subscriptionStore := repository.NewSubscriptionStore(db)

	catalog := service.NewPlanCatalog(planStore)
	subscriptions := service.NewSubscriptionService(catalog, subscriptionStore, time.Now)

	verifier, err := newVerifier(cfg)
	if err != nil {
		slog.Error("Erro ao configurar a autenticação", "error", err)
		return err
	}

	sweeper, err := service.NewExpirySweeper(subscriptions, cfg.ExpirySweepSchedule, cfg.ExpirySweepTimeout)
	if err != nil {
		slog.Error("Erro ao agendar a varredura de expiração", "error", err)
		return err
	}
	sweeper.Start(ctx)

	h := handlers{
		plans:         httphandler.NewPlanHandler(catalog),
		subscriptions: httphandler.NewSubscriptionHandler(subscriptions, verifier),
	}
	if cfg.WebhooksEnabled() {
		h.stripe = httphandler.NewStripeWebhookHandler(service.NewBillingEvents(subscriptions, cfg.StripeWebhookSecret))
	}

	// --- 4. INICIALIZAÇÃO DO SERVIDOR HTTP ---
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           newRouter(cfg.RequestTimeout, h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("✅ Servidor pronto para receber requisições", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("Erro ao iniciar o servidor", "error", err)
			return err
		}
	case <-ctx.Done():
		slog.Info("Sinal recebido, encerrando...")
	}

	// --- 5. ENCERRAMENTO ---
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sweeper.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Erro ao encerrar o servidor", "error", err)
		return err
	}
	slog.Info("Servidor encerrado")
	return nil
}

type handlers struct {
	plans         *httphandler.PlanHandler
	subscriptions *httphandler.SubscriptionHandler
	// stripe é nil quando STRIPE_WEBHOOK_SECRET não está definido.
	stripe *httphandler.StripeWebhookHandler
}

func newRouter(timeout time.Duration, h handlers) http.Handler {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(prometheusMiddleware)
	r.Use(middleware.Timeout(timeout))

	// Rota de Health Check
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Refresh API está no ar! 🚀"))
	})

	r.Handle("/metrics", promhttp.Handler())

	// A URL será http://localhost:8080/swagger/index.html
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Mount("/plans", h.plans.Routes())
	r.Mount("/subscriptions", h.subscriptions.Routes())
	slog.Info("🛰️  Rotas de /plans e /subscriptions registradas")

	if h.stripe != nil {
		r.Post("/webhooks/stripe", h.stripe.HandleStripeWebhook)
		slog.Info("Webhook da Stripe habilitado em /webhooks/stripe")
	}

	return r
}

// newVerifier escolhe como os tokens bearer são validados.
func newVerifier(cfg config.Config) (identity.Verifier, error) {
	if cfg.AuthMode == config.AuthModeRemote {
		client := &http.Client{Timeout: 10 * time.Second}
		return identity.NewRemoteVerifier(cfg.SupabaseURL, cfg.SupabaseAnonKey, client), nil
	}
	v, err := identity.NewJWTVerifier(cfg.JWTSecret, cfg.JWTAudience)
	if err != nil {
		return nil, err
	}
	return v, nil
}
