// Package logging builds a zap logger the way the rest of the fleet
// does: JSON to stdout in production, colorized console output in
// development.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a SugaredLogger for env ("development"/"dev" or
// anything else, which is treated as production). If env is empty it
// reads APP_ENV.
func New(env string) (*zap.SugaredLogger, error) {
	if env == "" {
		env = os.Getenv("APP_ENV")
	}

	var cfg zap.Config
	switch env {
	case "development", "dev":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// LogSolve logs one completed solver run.
func LogSolve(logger *zap.SugaredLogger, scheduleID string, preset string, status string, wallTimeSecs float64, numAssignments int) {
	logger.Infow("solver run completed",
		"schedule_id", scheduleID,
		"preset", preset,
		"status", status,
		"wall_time_secs", wallTimeSecs,
		"num_assignments", numAssignments,
	)
}

// LogViolations logs the outcome of a validator run.
func LogViolations(logger *zap.SugaredLogger, scheduleID string, hardCount, softCount int) {
	logger.Infow("validation completed",
		"schedule_id", scheduleID,
		"hard_violations", hardCount,
		"soft_violations", softCount,
	)
}

// LogJobFailure logs a job handler failure with its payload context.
func LogJobFailure(logger *zap.SugaredLogger, jobType string, err error, fields map[string]interface{}) {
	args := []interface{}{"job_type", jobType, "error", err}
	for k, v := range fields {
		args = append(args, k, v)
	}
	logger.Errorw("job failed", args...)
}
