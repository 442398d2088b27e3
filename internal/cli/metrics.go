package cli

import (
	"context"

	"docchat/internal/metrics"
)

func serveMetrics(ctx context.Context, addr string, a *app) error {
	log.Info("serving metrics", "addr", addr)
	return metrics.Serve(ctx, addr, a.registry)
}
