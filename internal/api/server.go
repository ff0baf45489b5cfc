package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/acaiflow/orderboard/internal/metrics"
	"github.com/acaiflow/orderboard/internal/order"
	"github.com/acaiflow/orderboard/internal/store"
)

// OrderStore is the persistence surface the API needs.
type OrderStore interface {
	ListOrders(ctx context.Context, status order.Status, q string) ([]order.Order, error)
	AdvanceStatus(ctx context.Context, id string, requested order.Status) (order.Order, order.Status, error)
}

// Syncer triggers an immediate ingest pass.
type Syncer interface {
	Sync(ctx context.Context) (int, error)
}

// Publisher announces successful lifecycle transitions. May wrap a nil
// broker client.
type Publisher interface {
	PublishStatusChanged(orderID string, from, to order.Status) error
}

type Server struct {
	router  *chi.Mux
	port    int
	store   OrderStore
	syncer  Syncer
	events  Publisher
	metrics *metrics.Registry
}

func NewServer(port int, apiToken string, db OrderStore, syncer Syncer, ev Publisher, m *metrics.Registry) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		store:   db,
		syncer:  syncer,
		events:  ev,
		metrics: m,
	}

	router.Get("/health", s.health)
	router.Get("/metrics", m.Handler().ServeHTTP)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/orders", s.listOrders)
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(apiToken))
			r.Post("/orders/{id}/status", s.advanceStatus)
			r.Post("/sync", s.triggerSync)
		})
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// BearerAuthMiddleware rejects requests without the configured bearer token.
// An empty token disables the check, matching local development setups.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listOrders handles GET /api/v1/orders?status=&q=
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	var status order.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := order.ParseStatus(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = st
	}

	orders, err := s.store.ListOrders(r.Context(), status, r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("failed to list orders", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orders": orders,
		"count":  len(orders),
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

type transitionError struct {
	Error     string `json:"error"`
	Current   string `json:"current"`
	Requested string `json:"requested"`
}

// advanceStatus handles POST /api/v1/orders/{id}/status
func (s *Server) advanceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	requested, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, prev, err := s.store.AdvanceStatus(r.Context(), id, requested)
	if err != nil {
		var ite *order.InvalidTransitionError
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.As(err, &ite):
			s.metrics.StatusRejected.Inc()
			writeJSON(w, http.StatusConflict, transitionError{
				Error:     ite.Error(),
				Current:   string(ite.Current),
				Requested: string(ite.Requested),
			})
		default:
			slog.Error("failed to advance status", "order_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to advance status")
		}
		return
	}

	s.metrics.StatusAdvanced.Inc()
	slog.Info("order status advanced", "order_id", id, "from", prev, "to", updated.Status)
	if err := s.events.PublishStatusChanged(id, prev, updated.Status); err != nil {
		slog.Warn("failed to publish status change", "order_id", id, "error", err)
	}

	writeJSON(w, http.StatusOK, updated)
}

// triggerSync handles POST /api/v1/sync
func (s *Server) triggerSync(w http.ResponseWriter, r *http.Request) {
	written, err := s.syncer.Sync(r.Context())
	if err != nil {
		slog.Error("manual sync failed", "error", err)
		writeError(w, http.StatusBadGateway, "sync failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"orders_written": written})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
