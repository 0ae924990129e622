package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ILogger writes module-tagged entries with a free-form details map. A
// details["error"] holding an error is also recorded as a structured error.
type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

// Options selects where entries go.
type Options struct {
	// FilePath receives JSON lines at FileLevel and above, rotated by size.
	FilePath  string
	FileLevel zapcore.Level
	// Console mirrors entries to stdout, JSON in production.
	Console    bool
	Production bool
}

type ZapLogger struct {
	logger *zap.Logger
}

func newRotator(logFilePath string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
}

func newJSONEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.LevelKey = "level"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// New builds a logger from opts. With neither a file nor the console it
// discards everything.
func New(opts Options) *ZapLogger {
	var cores []zapcore.Core
	if opts.FilePath != "" {
		cores = append(cores, zapcore.NewCore(newJSONEncoder(), zapcore.AddSync(newRotator(opts.FilePath)), opts.FileLevel))
	}
	if opts.Console {
		encoder := newJSONEncoder()
		if !opts.Production {
			encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), zap.DebugLevel))
	}
	if len(cores) == 0 {
		return NewNopLogger()
	}

	// Skip the wrapper frame so callers show up in the caller field.
	return &ZapLogger{logger: zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(2))}
}

// NewZapLogger logs to a rotated file and the console.
func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	return New(Options{FilePath: logFilePath, FileLevel: zap.InfoLevel, Console: true, Production: isProd})
}

// NewIsolatedLogger logs to the file only, keeping websocket churn out of
// the console.
func NewIsolatedLogger(logFilePath string) *ZapLogger {
	return New(Options{FilePath: logFilePath, FileLevel: zap.InfoLevel})
}

func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func (l *ZapLogger) write(level zapcore.Level, module, message string, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	fields := []zap.Field{zap.String("module", module), zap.Any("details", details)}
	if err, ok := details["error"].(error); ok {
		fields = append(fields, zap.Error(err))
	}
	if ce := l.logger.Check(level, message); ce != nil {
		ce.Write(fields...)
	}
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.write(zap.DebugLevel, module, message, details)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.write(zap.InfoLevel, module, message, details)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.write(zap.WarnLevel, module, message, details)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.write(zap.ErrorLevel, module, message, details)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}
