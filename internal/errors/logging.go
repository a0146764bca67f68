package errors

import (
	"github.com/sirupsen/logrus"
)

// LogFields returns the structured fields an AppError contributes to a log
// entry: its code, retryability, and any attached context.
func LogFields(err error) logrus.Fields {
	fields := logrus.Fields{}

	if appErr, ok := err.(*AppError); ok {
		fields["error_code"] = appErr.Code
		fields["retryable"] = appErr.Retryable
		for k, v := range appErr.Context {
			fields[k] = v
		}
	}

	return fields
}

// LogError logs an error with its structured context at error level
func LogError(logger *logrus.Logger, err error, message string) {
	logger.WithError(err).WithFields(LogFields(err)).Error(message)
}

// LogWarn logs an error with its structured context at warn level
func LogWarn(logger *logrus.Logger, err error, message string) {
	logger.WithError(err).WithFields(LogFields(err)).Warn(message)
}
