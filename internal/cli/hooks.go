package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mgrendahl/tackle/pkg/observability"
)

// registerLogHooks wires the observability hook registry to the server
// logger. Store and cache events log at debug so the default level stays
// readable; session lifecycle and write failures are worth info/warn.
// HTTP hooks stay no-op because the API request logger already writes
// one line per request.
func registerLogHooks(logger *log.Logger) {
	observability.SetStoreHooks(&logStoreHooks{logger: logger})
	observability.SetSessionHooks(&logSessionHooks{logger: logger})
	observability.SetCacheHooks(&logCacheHooks{logger: logger})
}

type logStoreHooks struct {
	logger *log.Logger
}

func (h *logStoreHooks) OnQuery(ctx context.Context, collection, operation string, duration time.Duration, err error) {
	if err != nil {
		h.logger.Warn("store query failed", "collection", collection, "op", operation, "error", err)
		return
	}
	h.logger.Debug("store query", "collection", collection, "op", operation, "duration", duration.Round(time.Microsecond))
}

func (h *logStoreHooks) OnWrite(ctx context.Context, collection, operation string, err error) {
	if err != nil {
		h.logger.Warn("store write failed", "collection", collection, "op", operation, "error", err)
		return
	}
	h.logger.Debug("store write", "collection", collection, "op", operation)
}

type logSessionHooks struct {
	logger *log.Logger
}

func (h *logSessionHooks) OnCreate(ctx context.Context, provider string) {
	h.logger.Info("session created", "provider", provider)
}

func (h *logSessionHooks) OnRevoke(ctx context.Context) {
	h.logger.Info("session revoked")
}

func (h *logSessionHooks) OnExpired(ctx context.Context) {
	h.logger.Debug("expired session rejected")
}

type logCacheHooks struct {
	logger *log.Logger
}

func (h *logCacheHooks) OnCacheHit(ctx context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logCacheHooks) OnCacheMiss(ctx context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logCacheHooks) OnCacheSet(ctx context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
