// Package logger builds the structured slog loggers used across hookrelay and
// provides attribute helpers so the same keys are used everywhere.
//
// # Creating a logger
//
// WithEnvironment picks the format and level for an environment and tags each
// record with the service and environment names. Config carries operator
// overrides read from LOG_LEVEL and LOG_FORMAT:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log, err := logger.NewFromConfig(cfg, "production", "hookrelay")
//	if err != nil {
//		return err
//	}
//	logger.SetAsDefault(log)
//
// # Attributes
//
// Component, WorkerID, ConsumerID, ShardID and MessageID locate a record in
// the delivery pipeline; StatusCode and Duration describe an HTTP exchange;
// Error records an error and drops itself when the error is nil:
//
//	log.InfoContext(ctx, "got response",
//		logger.MessageID(msg.ID),
//		logger.StatusCode(resp.StatusCode),
//		logger.Duration(resp.Duration))
package logger
