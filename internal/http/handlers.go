package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"costeapp/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether storage answers within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]string{"templates": "ok"}

	if err := s.api.Ping(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			"check", "storage",
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldError, err)
		checks["storage"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	NewResponse().Status(httpStatus).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, FixedCostsRoute, http.StatusFound)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		NotFoundJSON("route not found").Write(w)
		return
	}
	s.renderError(w, r, http.StatusNotFound, notFoundTitle, "La página que buscas no existe.")
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorJSON(http.StatusTooManyRequests, CodeRateLimited, "Demasiadas solicitudes. Inténtalo de nuevo en un momento.").Write(w)
}

// recoverer turns a handler panic into the error boundary response.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panic",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldErrorType, log.ErrorTypeInternal,
				"panic", fmt.Sprint(rvr),
				"stack", string(debug.Stack()))
			s.writeInternalError(w, r)
		}()
		next.ServeHTTP(w, r)
	})
}
