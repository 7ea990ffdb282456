package main

import (
	"context"
	"io"
	"net/http"

	"fmt"
	"log"
	"time"

	"relay-bot/backend"
)

const maxAskBody = 64 << 10

type relayService interface {
	Mode() backend.Mode
	SetMode(m backend.Mode)
	Ask(ctx context.Context, text string) (backend.Mode, string, error)
}

func authMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if token != "" && auth != "Token "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
func setupMux(authToken string, svc relayService) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/mode", authMiddleware(authToken, &httpModeHandler{svc: svc}))
	mux.Handle("/ask", authMiddleware(authToken, &httpAskHandler{svc: svc}))

	return mux
}

func HttpServer(ctx context.Context, cfg *Config, svc relayService) error {
	authToken, _ := GetSecret("HTTP_TOKEN_AUTH", cfg.Httpd.AuthToken)
	httpSrv := &http.Server{
		Addr:    cfg.Httpd.Addr,
		Handler: setupMux(authToken, svc),
	}
	// Gracefully shut down HTTP server on context cancel
	go func() {
		<-ctx.Done()
		log.Println("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting httpd server on %s", cfg.Httpd.Addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		// If it's ErrServerClosed, that means Shutdown() was called.
		return fmt.Errorf("HTTP server ListenAndServe(): %w", err)
	}
	return nil
}

type httpModeHandler struct {
	svc relayService
}

func (h *httpModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		mode, err := backend.ParseMode(r.URL.Query().Get("mode"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.svc.SetMode(mode)
		log.Printf("httpd: switched mode to %s", mode)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, h.svc.Mode())
}

type httpAskHandler struct {
	svc relayService
}

func (h *httpAskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAskBody))
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if len(body) == 0 {
		http.Error(w, "empty question", http.StatusBadRequest)
		return
	}

	mode, reply, err := h.svc.Ask(r.Context(), string(body))
	if err != nil {
		log.Printf("httpd: %s backend failed: %v", mode, err)
		http.Error(w, fmt.Sprintf("%s backend failed: %v", mode, err), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, err = fmt.Fprint(w, answerText(mode, reply))

	if err != nil {
		log.Printf("httpd: write response: %v", err)
	}
}
