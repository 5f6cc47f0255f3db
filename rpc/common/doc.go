// Package common provides the configuration and logging shared across the
// serialization core and the grl command.
//
// Key Components:
//
//   - Config: settings for the registration mechanism (default format, strict
//     registration, schema files) and logging, with a String method that
//     prints a readable summary.
//
//   - Logger: custom logging implementation that plugs into dragonboat's
//     logger package. Every package obtains its logger with
//     logger.GetLogger(name), InitLoggers installs the factory and sets the
//     level of all known loggers.
package common
