package closenicely

import (
	"io"

	"go.uber.org/zap"
)

// OrDebug closes closer, logging any error at debug level against name, usually a config path.
// Use it for deferred closes whose failure cannot change the outcome.
func OrDebug(closer io.Closer, name string) {
	FuncOrDebug(closer.Close, name)
}

func FuncOrDebug(closer func() error, name string) {
	if err := closer(); err != nil {
		zap.L().Debug("Failed to close", zap.String("resource", name), zap.Error(err))
	}
}
