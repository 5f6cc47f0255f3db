// Package cmd implements the command-line interface of grl. It loads schema
// files, registers the built-in formats and every declared type, and exposes
// the serialization core on the command line.
//
// The package is organized into several subpackages:
//
//   - convert: Converts a schema message between two formats
//   - inspect: Lists registered formats and messages and prints descriptors
//   - bench: Benchmarks every generic format and the specialized codecs
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Configuration is read from flags, from GRL_* environment variables and from
// .env and .env.local files in the working directory.
//
// See grl -help for a list of all commands.
package cmd
