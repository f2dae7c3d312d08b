//go:build !linux

package calls

import (
	"context"

	"go.uber.org/zap"
)

// NewDeviceMediaProvider returns a receive-only provider on platforms
// without capture drivers. The session falls back to recvonly transceivers.
func NewDeviceMediaProvider(logger *zap.SugaredLogger) MediaProvider {
	return &receiveOnlyProvider{logger: logger}
}

type receiveOnlyProvider struct {
	logger *zap.SugaredLogger
}

func (p *receiveOnlyProvider) Acquire(_ context.Context) ([]Track, error) {
	p.logger.Warnw("media capture is not supported on this platform, proceeding receive-only")
	return nil, nil
}
