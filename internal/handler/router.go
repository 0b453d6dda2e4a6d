package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/vishwajitsarnobat/Nxtcomm/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware ритейл-сервиса nxtcomm.
func (h *Handler) SetupRouter(corsOrigin string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.CORS(corsOrigin))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api/user-home", func(r chi.Router) {
		r.Get("/products", h.GetProducts)
		r.Get("/reviews/{productID}", h.GetReviews)
		r.Post("/reviews", h.AddReview)
		r.Get("/offers", h.GetOffers)
	})

	r.Route("/api/employee-home", func(r chi.Router) {
		r.Get("/orders", h.GetOrders)
		r.Put("/orders/{orderID}", h.UpdateOrderStatus)
		r.Get("/inventory", h.GetInventory)
		r.Get("/inventory/{productID}", h.GetStock)
		r.Get("/daily-transactions", h.GetDailyTransactions)
	})

	r.Route("/api/admin-home", func(r chi.Router) {
		r.Get("/employees", h.GetEmployees)
		r.Post("/employees", h.CreateEmployee)
		r.Get("/warehouses", h.GetWarehouses)
		r.Post("/warehouses", h.CreateWarehouse)
		r.Get("/analytics", h.GetAnalytics)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
