// Package logger builds *slog.Logger instances for the flashly services and
// provides attribute helpers so log keys stay consistent across packages.
//
// Production loggers write JSON at info level, development loggers write text
// at debug level:
//
//	log := logger.New(logger.WithEnvironment(cfg.Env, "flashly"))
//	log.InfoContext(ctx, "tier resolved", logger.UserID(userID), logger.Tier(1))
//
// Context extractors registered with WithContextExtractors add request-scoped
// attributes (request ID, user ID) to every record at write time.
//
// Components that accept a logger default to Discard() when none is given.
package logger
