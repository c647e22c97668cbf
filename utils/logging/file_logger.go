package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultFilename = "transpile.log"

// RotationOptions tune the rotating log file. Zero values take the defaults
// below.
type RotationOptions struct {
	Dir        string
	MaxSize    int // megabytes per file before rotation
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

func (o RotationOptions) withDefaults() RotationOptions {
	cpy := o
	if cpy.Dir == "" {
		cpy.Dir = "./logs"
	}
	if cpy.MaxSize == 0 {
		cpy.MaxSize = 50
	}
	if cpy.MaxBackups == 0 {
		cpy.MaxBackups = 5
	}
	if cpy.MaxAge == 0 {
		cpy.MaxAge = 14
	}
	return cpy
}

func NewRotatingFileLogger(
	debug bool,
	filename string,
	opts RotationOptions,
) (
	*zap.Logger,
	io.Closer,
	error,
) {
	opts = opts.withDefaults()
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, err
	}

	if filename == "" {
		filename = defaultFilename
	}

	path := filepath.Join(opts.Dir, filename)

	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAge,
		Compress:   opts.Compress,
	}

	encCfg := zap.NewProductionEncoderConfig()
	level := zap.InfoLevel
	if debug {
		encCfg = zap.NewDevelopmentEncoderConfig()
		level = zap.DebugLevel
	}
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	enc := zapcore.NewConsoleEncoder(encCfg)

	ws := zapcore.AddSync(rot)
	core := zapcore.NewCore(enc, ws, level)
	logger := zap.New(core, zap.AddCaller(), zap.Fields(
		zap.Int("pid", os.Getpid()),
	))

	return logger, rot, nil
}
