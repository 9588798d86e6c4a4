// Package server собирает HTTP-маршруты сервиса.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Bessima/orderflow/internal/handlers"
	middleware "github.com/Bessima/orderflow/internal/middlewares"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 5 * time.Second

type Dependencies struct {
	Auth     *handlers.AuthHandler
	Orders   handlers.OrderService
	Imports  handlers.ImportPipeline
	Products handlers.ProductCatalog
	Metrics  http.Handler
}

type ServerService struct {
	Server *http.Server
}

func NewServerService(rootContext context.Context, address string) ServerService {
	server := &http.Server{
		Addr:              address,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return rootContext
		},
	}
	return ServerService{Server: server}
}

func (serverService *ServerService) SetRouter(deps Dependencies) {
	serverService.Server.Handler = NewRouter(deps)
}

func NewRouter(deps Dependencies) chi.Router {
	router := chi.NewRouter()

	router.Use(logger.RequestLogger)

	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	ordersHandler := handlers.NewOrdersHandler(deps.Orders)
	importsHandler := handlers.NewImportsHandler(deps.Imports)
	productsHandler := handlers.NewProductsHandler(deps.Products)

	router.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(deps.Auth))

		r.Get("/api/me", deps.Auth.MeHandler)

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", ordersHandler.Create)
			r.Get("/", ordersHandler.List)
			r.Post("/delete", ordersHandler.BulkDelete)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ordersHandler.Get)
				r.Patch("/", ordersHandler.Update)
				r.Post("/actions/{action}", ordersHandler.Action)
				r.Post("/resync", ordersHandler.Resync)
				r.Get("/events", ordersHandler.Events)
				r.Get("/invoice", ordersHandler.Invoice)
				r.Get("/invoice/document", ordersHandler.InvoiceDocument)
			})
		})

		r.Route("/api/imports", func(r chi.Router) {
			r.Post("/", importsHandler.Upload)
			r.Get("/{id}", importsHandler.Session)
			r.Post("/{id}/resume", importsHandler.Resume)
			r.Post("/{id}/corrections", importsHandler.Correct)
		})

		r.Get("/api/products", productsHandler.List)
		r.Post("/api/products", productsHandler.Create)
	})

	return router
}

func (serverService *ServerService) RunServer(serverErr *chan error) {
	if err := serverService.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		*serverErr <- err
	} else {
		*serverErr <- nil
	}
}

func (serverService *ServerService) Shutdown() error {
	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	return serverService.Server.Shutdown(shutdownCtx)
}
