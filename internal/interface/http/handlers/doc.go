// Package handlers contains reusable HTTP building blocks for the ledger API:
// health checks and middleware that does not depend on the application layer.
//
// # Health Checks
//
// Named checks run in parallel, each under its own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("v0.1.0")
//	checker.AddCheck("database", handlers.NewPingCheck(store))
//	checker.AddCheck("redis", handlers.NewPingCheck(cache))
//
//	status := checker.Check(ctx)
//
// # Middleware
//
// APIKeyAuth guards administrative routes; Chain composes middleware in the
// order given, the first one being the outermost:
//
//	admin := handlers.NewAPIKeyAuth("X-API-Key", []string{key})
//	h := handlers.ChainHandler(mux, handlers.SecurityHeadersMiddleware, admin.Middleware)
package handlers
