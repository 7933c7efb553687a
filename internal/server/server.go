package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/lealre/ratebeer-backend/internal/api"
)

const shutdownTimeout = 10 * time.Second

// NewServer registers every route and wraps the mux with the logging and
// authentication middlewares.
func NewServer(a *api.API) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", api.RootHandler)

	mux.HandleFunc("POST /users", a.CreateUser)
	mux.HandleFunc("GET /users/me", a.GetCurrentUser)
	mux.HandleFunc("POST /login", a.Login)

	mux.HandleFunc("POST /sessions", a.CreateSession)
	mux.HandleFunc("POST /sessions/join", a.JoinSession)
	mux.HandleFunc("GET /sessions/{id}", a.GetSession)
	mux.HandleFunc("POST /sessions/{id}/item", a.SelectItem)
	mux.HandleFunc("POST /sessions/{id}/results", a.AdvanceToResults)
	mux.HandleFunc("POST /sessions/{id}/lobby", a.ReturnToSelection)
	mux.HandleFunc("POST /sessions/{id}/leave", a.LeaveSession)
	mux.HandleFunc("GET /sessions/{id}/watch", a.WatchSession)

	mux.HandleFunc("POST /sessions/{id}/ratings", a.SubmitRating)
	mux.HandleFunc("GET /sessions/{id}/ratings/{itemId}", a.GetGroupRating)
	mux.HandleFunc("GET /sessions/{id}/ratings/{itemId}/summary", a.GetRatingSummary)
	mux.HandleFunc("GET /sessions/{id}/ratings/{itemId}/watch", a.WatchGroupRating)

	mux.HandleFunc("GET /items", a.SearchItems)
	mux.HandleFunc("GET /items/{itemId}", a.GetItem)
	mux.HandleFunc("GET /items/{itemId}/average", a.GetGlobalAverage)

	authMux := AuthMiddleware(a.Users)(mux)
	return RequestIdMiddleware(authMux)
}

// ListenAndServe serves handler until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, port string, handler http.Handler) error {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server is running on port %s", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
