package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kedai-qr/api/internal/config"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"github.com/kedai-qr/api/internal/handler"
	mw "github.com/kedai-qr/api/internal/middleware"
	"github.com/kedai-qr/api/internal/service"
	"github.com/kedai-qr/api/internal/ws"
)

// Services are the stateful services shared with background workers.
// Carts is nil when Redis is not configured.
type Services struct {
	Sessions *service.SessionService
	Orders   *service.OrderService
	Payments *service.PaymentService
	Carts    handler.CartStore
}

// New creates a Chi router with all application routes wired up.
// Customer routes are public and authorized by the table token; staff routes
// require a JWT and a role.
func New(cfg *config.Config, queries *database.Queries, hub *ws.Hub, svc Services) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	tableHandler := handler.NewTableHandler(svc.Sessions, queries, cfg.PublicOrderURL)
	menuHandler := handler.NewMenuHandler(queries)
	cartHandler := handler.NewCartHandler(svc.Carts, svc.Sessions)
	orderHandler := handler.NewOrderHandler(svc.Orders)
	paymentHandler := handler.NewPaymentHandler(svc.Payments, queries)
	transactionHandler := handler.NewTransactionHandler(queries, svc.Orders, cfg.Location)
	userHandler := handler.NewUserHandler(queries)

	// Public and session-scoped customer routes
	authHandler.RegisterRoutes(r)
	tableHandler.RegisterPublicRoutes(r)
	menuHandler.RegisterPublicRoutes(r)
	cartHandler.RegisterRoutes(r)
	orderHandler.RegisterPublicRoutes(r)
	paymentHandler.RegisterPublicRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/{channel}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Staff routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		authHandler.RegisterStaffRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))
			tableHandler.RegisterAdminRoutes(r)
			menuHandler.RegisterAdminRoutes(r)
			r.Route("/users", userHandler.RegisterRoutes)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleCashier))
			tableHandler.RegisterQRRoutes(r)
			paymentHandler.RegisterStaffRoutes(r)
			transactionHandler.RegisterCashierRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleKitchen))
			orderHandler.RegisterStaffRoutes(r)
			transactionHandler.RegisterKitchenRoutes(r)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
