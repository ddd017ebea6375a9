// Package logger builds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
)

// New returns a sugared logger. Development mode uses console encoding with
// human-readable timestamps; production emits JSON.
func New(development bool) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)
	if development {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
