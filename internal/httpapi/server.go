package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"creator-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, roles RoleStore, serverCfg models.ServerConfig, authCfg models.AuthConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := serverCfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerApiKey, headerTimestamp, headerSignature},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Payment callers: API key + HMAC signature
		r.Route("/payments", func(r chi.Router) {
			r.Use(rateLimit(serverCfg.PaymentRateLimit, serverCfg.PaymentBurst))
			r.Use(paymentAuth(authCfg, time.Now))
			r.Post("/", h.CreatePayment)
			r.Post("/cpm", h.CreateCPMPayment)
		})

		// Admin routes: bearer token + admin role
		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth(authCfg, roles))

			r.Post("/undo-transaction", h.UndoTransaction)
			r.Post("/transactions", h.RecordTransaction)
			r.Post("/transactions/{id}/reverse", h.ReverseTransaction)
			r.Post("/referrals", h.CreateReferral)
			r.Get("/referrals/{id}", h.GetReferral)
			r.Post("/referrals/{id}/reward", h.CreateReferralReward)
			r.Post("/teams/{id}/commissions", h.CreateTeamCommission)
			r.Get("/transactions/{id}/team-earning", h.GetTeamEarning)
			r.Get("/campaigns/{id}/accounts/{accountId}", h.GetAccountAnalytics)
			r.Get("/cpm-payouts/{id}", h.GetCpmPayout)
			r.Get("/audit/{table}/{id}", h.ListAuditLog)

			r.Route("/commission", func(r chi.Router) {
				r.Get("/sellers/{id}", h.GetSellerRates)
				r.Put("/sellers/{id}", h.SetSellerRate)
				r.Get("/sellers/{id}/changes", h.SellerChanges)
				r.Put("/communities/{id}", h.SetCommunityRate)
				r.Get("/communities/{id}/changes", h.CommunityChanges)
			})

			r.Route("/wallets/{userId}", func(r chi.Router) {
				r.Get("/", h.GetWallet)
				r.Get("/transactions", h.GetTransactions)
				r.Get("/reconcile", h.ReconcileWallet)
				r.Get("/profile", h.GetProfile)
				r.Put("/payout-details", h.UpdatePayoutDetails)
			})
		})
	})

	return r
}

// Server is the HTTP server with a capped listener.
type Server struct {
	cfg  models.ServerConfig
	http *http.Server
}

func NewServer(cfg models.ServerConfig, handler http.Handler) *Server {
	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
	}
}

// ListenAndServe blocks until the server stops. It returns nil after a clean Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}

	zap.L().Info("HTTP server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("max_connections", s.cfg.MaxConnections))

	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
