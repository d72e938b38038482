package observability

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// ProcessRSS returns the resident set size of the current process in bytes
func ProcessRSS(ctx context.Context) (uint64, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())) //nolint:gosec // pid fits
	if err != nil {
		return 0, err
	}
	info, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return info.RSS, nil
}

// LogMemory logs the resident set size after stage. Failures are logged at debug.
func LogMemory(ctx context.Context, logger *zap.Logger, stage string) {
	rss, err := ProcessRSS(ctx)
	if err != nil {
		logger.Debug("failed to read process memory", zap.Error(err))
		return
	}
	logger.Info("memory usage",
		zap.String("stage", stage),
		zap.Uint64("rss_bytes", rss),
		zap.Float64("rss_mb", float64(rss)/1024/1024),
	)
}
