// Package logging builds the process logger.
//
// The logger is a log/slog logger with a JSON or text handler, an
// adjustable level and a redacting handler that masks credentials such as
// remote Authorization headers and passwords in URLs. Components do not
// hold a reference to it; they derive from slog.Default():
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	log := slog.Default().With("component", "rules.manager")
package logging
