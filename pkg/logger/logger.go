package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `yaml:"level" envconfig:"LOG_LEVEL" default:"debug"`
	Sink     string        `yaml:"sink" envconfig:"LOG_SINK"`
}

// NewLogger builds a named zap logger writing to stderr or, if
// cfg.Sink is set, to that file as well.
func NewLogger(cfg Log, name string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	ws := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if cfg.Sink != "" {
		if f, err := os.OpenFile(cfg.Sink, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			ws = append(ws, zapcore.AddSync(f))
		}
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(ws...), cfg.LogLevel)
	return zap.New(core, zap.AddCaller()).Named(name)
}
