package util

import (
	"strings"

	"github.com/ValentinKolb/grl/rpc/common"
	"github.com/ValentinKolb/grl/rpc/registration"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupConfigFlags adds the flags shared by every command that builds a registrar
func SetupConfigFlags(cmd *cobra.Command) {
	defaults := common.DefaultConfig()

	key := "format"
	cmd.PersistentFlags().String(key, defaults.DefaultFormat, WrapString("The default serialization format (binary, cbor, json, msgpack, proto)"))

	key = "strict"
	cmd.PersistentFlags().Bool(key, defaults.StrictRegistration, WrapString("Reject duplicate registrations instead of overwriting them"))

	key = "schema"
	cmd.PersistentFlags().StringSlice(key, nil, WrapString("HCL schema files to load (can be repeated or comma separated)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("The log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("grl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the configuration from viper
func GetConfig() common.Config {
	conf := common.Config{
		DefaultFormat:      viper.GetString("format"),
		StrictRegistration: viper.GetBool("strict"),
		SchemaFiles:        viper.GetStringSlice("schema"),
		LogLevel:           viper.GetString("log-level"),
	}

	// GRL_SCHEMA=a.hcl,b.hcl arrives as a single element
	var files []string
	for _, f := range conf.SchemaFiles {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				files = append(files, part)
			}
		}
	}
	conf.SchemaFiles = files

	return conf
}

// NewRegistrar validates the configuration, initializes the loggers and
// returns a registrar with the built-in formats, the configured schema files
// and every declared registration applied
func NewRegistrar() (*registration.Registrar, error) {
	conf := GetConfig()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(conf); err != nil {
		return nil, err
	}

	r := registration.New(conf)
	if err := r.ApplyConfig(); err != nil {
		return nil, err
	}
	if err := r.ApplyDeclared(); err != nil {
		return nil, err
	}
	return r, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}
