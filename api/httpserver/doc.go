// Package httpserver provides the reusable HTTP server shell for the
// auction service binaries.
//
// It wraps a chi router with standard middleware, structured request
// logging, health endpoints, an optional Prometheus metrics listener, and
// graceful shutdown with a drain phase for load balancers.
//
// Handlers plug in through the RouteRegistrar interface:
//
//	func (h *HouseHandler) RegisterRoutes(r chi.Router) {
//	    r.Post("/house/auctions", h.handleCreateAuction)
//	}
//
//	srv, _ := httpserver.New(cfg, houseHandler, ledgerHandler)
//	srv.RunInBackground()
//	defer srv.Shutdown()
//
// Every server built this way exposes /livez, /readyz, /drain and /undrain,
// and /debug pprof endpoints when enabled.
package httpserver
