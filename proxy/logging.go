package proxy

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the router's default logger: a named zap logger writing
// to stdout. In debug mode it uses a console encoder at debug level;
// otherwise a JSON encoder at error level, so production dispatching is
// silent unless a handler fails.
func newLogger(name string, debug bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		encoder zapcore.Encoder
		level   zapcore.Level
	)
	if debug {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
		level = zapcore.DebugLevel
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
		level = zapcore.ErrorLevel
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)

	return zap.New(core).Named(name)
}
