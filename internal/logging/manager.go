package logging

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// LoggerManager keeps one logger per component.
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
	console LogLevel
	file    LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager returns the process-wide manager.
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers: make(map[string]*Logger),
			console: INFO,
			file:    DEBUG,
		}
	})
	return globalManager
}

// GetLogger returns the component logger, creating it on first use.
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger, nil
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger for %s: %w", component, err)
	}
	logger.SetLevels(lm.console, lm.file)

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger returns the component logger or a console-only fallback.
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		fallback := newConsoleLogger(component, os.Stdout)
		fallback.SetLevels(lm.console, ERROR)
		return fallback
	}
	return logger
}

// SetDefaultLevels sets thresholds for existing and future component loggers.
func (lm *LoggerManager) SetDefaultLevels(console, file LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.console = console
	lm.file = file
	for _, l := range lm.loggers {
		l.SetLevels(console, file)
	}
}

// CloseAll closes every component logger.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close logger for %s: %w", component, err)
		}
	}

	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// ListComponents returns registered component names in sorted order.
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// SetLogLevel changes thresholds for a single component.
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("logger for component %s not found", component)
	}

	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger {
	return GetComponentLogger("world")
}

func GetStorageLogger() *Logger {
	return GetComponentLogger("storage")
}

func GetAPILogger() *Logger {
	return GetComponentLogger("api")
}
