// Package log provides the logging abstraction used by the streamer.
//
// Components depend on the Logger interface rather than a concrete
// logging library. A zerolog-backed adapter is provided for production
// use and a no-op logger for tests and embedders that want silence.
//
// # Usage
//
// Console logging via zerolog:
//
//	logger := log.NewZerologAdapter()
//	logger.Info("client registered", log.String("addr", addr.String()))
//
// Silence:
//
//	logger := log.NewNoopLogger()
package log
