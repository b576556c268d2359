package logger

import (
	"go.uber.org/zap"
)

// NewLogger builds a production logger, or a development one with readable
// console output when the service is not running in production.
func NewLogger(isProduction bool) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)

	if isProduction {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}
