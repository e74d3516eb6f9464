package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	srv  *http.Server
	done chan struct{}
}

// StartHTTP запускает сервер и гасит его при отмене ctx
func StartHTTP(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          zap.NewStdLog(logger.Named("http")),
	}
	s := &HTTPServer{srv: srv, done: make(chan struct{})}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("HTTP server shutdown", zap.Error(err))
		}
	}()

	return s
}

// Wait ждёт завершения Shutdown
func (s *HTTPServer) Wait() {
	<-s.done
}
