package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"polysim/internal/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps logrus with a component tag that is attached to every entry
type Logger struct {
	*logrus.Logger
	component string
}

// Log levels
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
	FatalLevel = logrus.FatalLevel
)

// Global logger instance
var globalLogger *Logger

// NewLogger creates a new logger with the given configuration
func NewLogger(cfg config.LoggingConfig) *Logger {
	logger := logrus.New()

	// Set log level
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Set formatter
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	// Set output
	var output io.Writer
	switch cfg.Output {
	case "stdout":
		output = os.Stdout
	case "file":
		output = createFileWriter(cfg)
	case "both":
		output = io.MultiWriter(os.Stdout, createFileWriter(cfg))
	default:
		output = os.Stdout
	}

	logger.SetOutput(output)

	return &Logger{
		Logger: logger,
	}
}

// createFileWriter creates a rotating file writer
func createFileWriter(cfg config.LoggingConfig) io.Writer {
	// Ensure log directory exists
	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		fmt.Printf("Warning: Failed to create log directory: %v\n", err)
		return os.Stdout
	}

	logFile := filepath.Join(cfg.Directory, "polysim.log")

	return &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}
}

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg config.LoggingConfig) {
	globalLogger = NewLogger(cfg)
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		// Create default logger if not initialized
		globalLogger = NewLogger(config.LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		})
	}
	return globalLogger
}

// NewComponentLogger creates a logger for a specific component
func NewComponentLogger(component string) *Logger {
	baseLogger := GetGlobalLogger()
	return &Logger{
		Logger:    baseLogger.Logger,
		component: component,
	}
}

// entry returns a logrus entry carrying the component tag
func (l *Logger) entry() *logrus.Entry {
	if l.component != "" {
		return l.Logger.WithField("component", l.component)
	}
	return logrus.NewEntry(l.Logger)
}

// Logging methods with component awareness

// Debug logs a debug message
func (l *Logger) Debug(args ...interface{}) {
	l.entry().Debug(args...)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.entry().Debugf(format, args...)
}

// Info logs an info message
func (l *Logger) Info(args ...interface{}) {
	l.entry().Info(args...)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.entry().Infof(format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(args ...interface{}) {
	l.entry().Warn(args...)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.entry().Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(args ...interface{}) {
	l.entry().Error(args...)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.entry().Errorf(format, args...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(args ...interface{}) {
	l.entry().Fatal(args...)
}

// Fatalf logs a formatted fatal message and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.entry().Fatalf(format, args...)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.entry().WithFields(fields)
}

// WithField adds a single field to the logger
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.entry().WithField(key, value)
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.entry().WithError(err)
}

// Backtest-specific logging methods

// LogSignal logs an accepted trading signal
func (l *Logger) LogSignal(strategy string, marketID string, side string, price float64, reason string) {
	l.entry().WithFields(logrus.Fields{
		"event":    "signal",
		"strategy": strategy,
		"market":   marketID,
		"side":     side,
		"price":    price,
		"reason":   reason,
	}).Info("Signal generated")
}

// LogPositionOpened logs a new position
func (l *Logger) LogPositionOpened(marketID string, side string, size float64, entryPrice float64) {
	l.entry().WithFields(logrus.Fields{
		"event":       "position_opened",
		"market":      marketID,
		"side":        side,
		"size":        size,
		"entry_price": entryPrice,
		"notional":    size * entryPrice,
	}).Info("Position opened")
}

// LogTrade logs a closed trade
func (l *Logger) LogTrade(marketID string, side string, size float64, entryPrice float64, exitPrice float64, pnl float64, reason string) {
	l.entry().WithFields(logrus.Fields{
		"event":       "trade_closed",
		"market":      marketID,
		"side":        side,
		"size":        size,
		"entry_price": entryPrice,
		"exit_price":  exitPrice,
		"pnl":         pnl,
		"exit_reason": reason,
	}).Info("Trade closed")
}

// LogPerformance logs run-level performance metrics
func (l *Logger) LogPerformance(totalPnL float64, winRate float64, tradeCount int, sharpeRatio float64) {
	l.entry().WithFields(logrus.Fields{
		"event":        "performance_update",
		"total_pnl":    totalPnL,
		"win_rate":     winRate,
		"trade_count":  tradeCount,
		"sharpe_ratio": sharpeRatio,
	}).Info("Performance metrics updated")
}

// LogRun logs the completion of a backtest run
func (l *Logger) LogRun(runID string, strategy string, markets int, frames int, trades int, finalEquity float64) {
	l.entry().WithFields(logrus.Fields{
		"event":        "run_complete",
		"run_id":       runID,
		"strategy":     strategy,
		"markets":      markets,
		"frames":       frames,
		"trades":       trades,
		"final_equity": finalEquity,
	}).Info("Backtest run complete")
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error, context map[string]interface{}) {
	fields := logrus.Fields{
		"event":     "error",
		"operation": operation,
		"error":     err.Error(),
	}

	// Add context fields
	for k, v := range context {
		fields[k] = v
	}

	l.entry().WithFields(fields).Error("Operation failed")
}

// Global convenience functions

// Debug logs a debug message using the global logger
func Debug(args ...interface{}) {
	GetGlobalLogger().Debug(args...)
}

// Debugf logs a formatted debug message using the global logger
func Debugf(format string, args ...interface{}) {
	GetGlobalLogger().Debugf(format, args...)
}

// Info logs an info message using the global logger
func Info(args ...interface{}) {
	GetGlobalLogger().Info(args...)
}

// Infof logs a formatted info message using the global logger
func Infof(format string, args ...interface{}) {
	GetGlobalLogger().Infof(format, args...)
}

// Warn logs a warning message using the global logger
func Warn(args ...interface{}) {
	GetGlobalLogger().Warn(args...)
}

// Warnf logs a formatted warning message using the global logger
func Warnf(format string, args ...interface{}) {
	GetGlobalLogger().Warnf(format, args...)
}

// Error logs an error message using the global logger
func Error(args ...interface{}) {
	GetGlobalLogger().Error(args...)
}

// Errorf logs a formatted error message using the global logger
func Errorf(format string, args ...interface{}) {
	GetGlobalLogger().Errorf(format, args...)
}

// Fatal logs a fatal message using the global logger
func Fatal(args ...interface{}) {
	GetGlobalLogger().Fatal(args...)
}

// Fatalf logs a formatted fatal message using the global logger
func Fatalf(format string, args ...interface{}) {
	GetGlobalLogger().Fatalf(format, args...)
}

// CreateBacktestLogger creates a logger for the backtest engine
func CreateBacktestLogger() *Logger {
	return NewComponentLogger("backtest")
}

// CreateProviderLogger creates a logger for market data providers
func CreateProviderLogger() *Logger {
	return NewComponentLogger("provider")
}

// CreateStrategyLogger creates a logger for strategy operations
func CreateStrategyLogger() *Logger {
	return NewComponentLogger("strategy")
}

// CreateArchiveLogger creates a logger for the results archive
func CreateArchiveLogger() *Logger {
	return NewComponentLogger("archive")
}
