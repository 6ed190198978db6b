package main

import (
	"context"
	"log/slog"
	"time"

	httpadapter "github.com/couchcryptid/sdo-composite/internal/adapter/http"
)

func shutdown(srv *httpadapter.Server, timeout time.Duration, logger *slog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
}
