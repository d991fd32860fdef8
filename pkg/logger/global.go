package logger

import "sync"

var (
	defaultMu     sync.RWMutex
	defaultLogger = New()
)

// SetLevel changes the minimum level of the package default logger.
func SetLevel(level LogLevel) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger.SetLevel(level)
}

// SetGlobalMode tags the package default logger (and every child derived
// from it afterwards) with the given mode, e.g. "server" vs "cli".
func SetGlobalMode(mode string) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger.SetMode(mode)
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Debug(msg string, keyVals ...interface{}) { current().Debug(msg, keyVals...) }
func Info(msg string, keyVals ...interface{})  { current().Info(msg, keyVals...) }
func Warn(msg string, keyVals ...interface{})  { current().Warn(msg, keyVals...) }
func Error(msg string, keyVals ...interface{}) { current().Error(msg, keyVals...) }

func WithField(key string, value interface{}) *Logger { return current().WithField(key, value) }
func WithFields(keyVals ...interface{}) *Logger        { return current().WithFields(keyVals...) }
func WithMode(mode string) *Logger                     { return current().WithMode(mode) }
