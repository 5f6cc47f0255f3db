package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Configuration struct
// --------------------------------------------------------------------------

// Config holds the settings shared by the registration mechanism and the CLI
type Config struct {
	// DefaultFormat is the format used when a command does not name one
	DefaultFormat string
	// StrictRegistration rejects registering a second entry under the same key
	// instead of overwriting it
	StrictRegistration bool
	// SchemaFiles are HCL schema files loaded at start-up
	SchemaFiles []string

	// Logging configuration
	LogLevel string
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		DefaultFormat: "json",
		LogLevel:      "info",
	}
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	if c.DefaultFormat == "" {
		return fmt.Errorf("default format must not be empty")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	for _, f := range c.SchemaFiles {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("schema file path must not be empty")
		}
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// Registration settings
	addSection("Registration")
	addField("Default Format", c.DefaultFormat)
	addField("Strict Registration", fmt.Sprintf("%t", c.StrictRegistration))

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	// Schemas
	addSection("Schema Files")
	if len(c.SchemaFiles) == 0 {
		sb.WriteString("  (none)\n")
	}
	for i, f := range c.SchemaFiles {
		addField(fmt.Sprintf("%d", i+1), f)
	}

	return sb.String()
}
