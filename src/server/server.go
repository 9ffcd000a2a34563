package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"budgetpilot/src/alerts"
	"budgetpilot/src/anomaly"
	"budgetpilot/src/autopilot"
	"budgetpilot/src/features"
	"budgetpilot/src/handler"
	"budgetpilot/src/repository"
)

func StartServer(port string) {
	service := autopilot.NewService(
		logger.WithField("component", "autopilot"),
		repository.NewGuardrailConfigRepository(),
		repository.NewExecutionRepository(),
		repository.NewDailyMoveRepository(),
		repository.NewBudgetMover(),
		anomaly.NewHTTPDetector(),
		alerts.NewSinkFromEnv(),
	)
	configs := repository.NewGuardrailConfigRepository()
	executions := repository.NewExecutionRepository()
	gate := features.NewRedisGate()

	// Router with middleware
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/autopilot", func(r chi.Router) {
		r.Post("/execute", handler.ExecuteHandler(service))
		r.Post("/rollback", handler.RollbackHandler(service))
		r.Get("/executions", handler.SearchExecutionsHandler(executions))
		r.Put("/config", handler.UpsertConfigHandler(configs, gate))
	})

	// Graceful server
	// Server setup
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
