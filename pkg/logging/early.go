package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EarlyLog reports bootstrap problems before the configured logger exists.
// Messages are printf-style and always go to stderr.
type EarlyLog struct {
	log *zap.SugaredLogger
}

func NewEarlyLog(service string) *EarlyLog {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		zapcore.DebugLevel,
	)
	return &EarlyLog{log: zap.New(core).Sugar().With("service", service)}
}

// Error logs the message and exits with status 1.
func (l *EarlyLog) Error(msg string, args ...interface{}) {
	l.log.Errorf(msg, args...)
	l.exit()
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	l.log.Infof(msg, args...)
}

func (l *EarlyLog) exit() {
	if err := l.log.Sync(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
