// Package log wraps zap for the wellmrc binaries. Components take a
// *zap.SugaredLogger at construction; the package-level logger is what the
// command entry points hand them.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger

// New builds a sugared logger. Debug mode uses zap's development config.
func New(debug bool) (*zap.SugaredLogger, error) {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %v", err)
	}
	return zapLogger.Sugar(), nil
}

// Init initializes the package-level logger
func Init(debug bool) error {
	l, err := New(debug)
	if err != nil {
		return err
	}
	log = l
	return nil
}

// GetSugaredLogger returns the package-level logger, falling back to a
// production logger if Init was never called
func GetSugaredLogger() *zap.SugaredLogger {
	if log == nil {
		base, _ := zap.NewProduction()
		log = base.Sugar()
	}
	return log
}

// Named returns a child of the package-level logger for one component
func Named(component string) *zap.SugaredLogger {
	return GetSugaredLogger().Named(component)
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Infof(template string, args ...interface{}) {
	GetSugaredLogger().Infof(template, args...)
}

func Errorf(template string, args ...interface{}) {
	GetSugaredLogger().Errorf(template, args...)
}

func Fatalf(template string, args ...interface{}) {
	GetSugaredLogger().Fatalf(template, args...)
	os.Exit(1)
}
