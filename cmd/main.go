// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/table-reservations/internal/database"
	"github.com/example/table-reservations/internal/handler"
	"github.com/example/table-reservations/internal/notify"
	"github.com/example/table-reservations/internal/repository"
	"github.com/example/table-reservations/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	ctx := context.Background()

	// ── 1. Connect to PostgreSQL and migrate ─────────────────────────────
	pool, err := database.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Println("connected to postgres")

	// ── 2. Wire up layers ────────────────────────────────────────────────
	restaurantRepo := repository.NewRestaurantRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	mailer := notify.NewEmailNotifier(notify.ConfigFromEnv())

	availabilitySvc := service.NewAvailabilityService(restaurantRepo, reservationRepo)
	reservationSvc := service.NewReservationService(restaurantRepo, reservationRepo, availabilitySvc, userRepo, mailer)
	h := handler.NewReservationHandler(restaurantRepo, availabilitySvc, reservationSvc)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)            // permissive CORS for the frontend
	r.Use(handler.Identity)        // trusted identity headers

	// Health
	r.Get("/health", handler.HealthCheck)

	// Public routes
	r.Get("/restaurants/{id}", h.GetRestaurant)
	r.Get("/reservations/availability", h.CheckAvailability)
	r.Get("/reservations/available-slots/{restaurantId}/{date}", h.AvailableSlots)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(handler.RequireUser)
		r.Post("/reservations", h.CreateReservation)
		r.Put("/reservations/{id}", h.ModifyReservation)
		r.Delete("/reservations/{id}", h.CancelReservation)
		r.Get("/reservations/{restaurantId}/{date}", h.ListByDate)
	})

	// Admin routes
	r.Route("/admin/reservations", func(r chi.Router) {
		r.Use(handler.RequireAdmin)
		r.Get("/", h.ListReservations)
		r.Get("/pending", h.ListPending)
		r.Put("/{id}/accept", h.AcceptReservation)
		r.Put("/{id}/reject", h.RejectReservation)
		r.Put("/{id}/status", h.OverrideStatus)
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Printf("server listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
