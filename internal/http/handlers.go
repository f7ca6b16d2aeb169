package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})
	fail := func(name string, err error) {
		checks[name] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.templates == nil {
		fail("templates", errTemplatesNotLoaded)
	} else {
		checks["templates"] = "ok"
	}

	if s.store == nil {
		checks["session_store"] = "not_configured"
	} else if err := s.store.Ping(ctx); err != nil {
		fail("session_store", err)
	} else {
		checks["session_store"] = "ok"
	}

	if err := s.backend.Ping(ctx); err != nil {
		fail("backend", err)
	} else {
		checks["backend"] = "ok"
	}

	checks["workspaces"] = map[string]interface{}{
		"active": s.workspaces.Size(),
		"status": "ok",
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(response)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	ws := s.workspaces.Metrics()

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %d\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_requests_in_flight", "gauge", "Requests currently being served", traceMetrics.InFlight)
	metric("http_response_time_microseconds_avg", "gauge", "Average response time", traceMetrics.AverageResponseTime)

	metric("transaction_mutations_total", "counter", "Successful create, update and delete calls", ws.Mutations.Load())
	metric("workspace_refreshes_total", "counter", "Combined list and summary refreshes", ws.Refreshes.Load())
	metric("workspace_stale_discards_total", "counter", "Responses dropped after an identity change", ws.StaleDiscards.Load())
	metric("workspace_fetch_errors_total", "counter", "Failed list or summary fetches", ws.FetchErrors.Load())
	metric("workspace_evictions_total", "counter", "Workspaces evicted from the cache", ws.Evictions.Load())
	metric("active_workspaces", "gauge", "Workspaces currently cached", int64(s.workspaces.Size()))

	metric("registrations_total", "counter", "Successful registrations", s.appMetrics.registrations.Load())
	metric("logins_total", "counter", "Successful logins", s.appMetrics.logins.Load())
	metric("logouts_total", "counter", "Logouts", s.appMetrics.logouts.Load())

	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)

	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
