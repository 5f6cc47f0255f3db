package convert

import (
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/grl/cmd/util"
	"github.com/ValentinKolb/grl/rpc/factory"
	"github.com/ValentinKolb/grl/rpc/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ConvertCmd re-encodes a schema message from one format into another
	ConvertCmd = &cobra.Command{
		Use:   "convert",
		Short: "Convert a schema message between formats",
		Long: `Reads a message of a schema loaded with --schema from stdin (or --file),
decodes it with the --from format and writes it to stdout in the --to format.

Example:
  echo '{"x":1,"y":2}' | grl convert --schema geo.hcl --type geo.Point --to proto --out hex`,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return util.BindCommandFlags(cmd) },
		RunE:    run,
	}
)

func init() {
	key := "type"
	ConvertCmd.Flags().String(key, "", util.WrapString("Name of the schema message to convert (required)"))
	key = "from"
	ConvertCmd.Flags().String(key, "", util.WrapString("Format of the input (defaults to --format)"))
	key = "to"
	ConvertCmd.Flags().String(key, "", util.WrapString("Format of the output (defaults to --format)"))
	key = "in"
	ConvertCmd.Flags().String(key, string(EncodingRaw), util.WrapString("Text encoding of the input (raw, hex, base64)"))
	key = "out"
	ConvertCmd.Flags().String(key, string(EncodingRaw), util.WrapString("Text encoding of the output (raw, hex, base64)"))
	key = "file"
	ConvertCmd.Flags().String(key, "", util.WrapString("Read the input from this file instead of stdin"))

	_ = ConvertCmd.MarkFlagRequired("type")
}

func run(cmd *cobra.Command, _ []string) error {
	r, err := util.NewRegistrar()
	if err != nil {
		return err
	}
	conf := r.Config()

	from := viper.GetString("from")
	if from == "" {
		from = conf.DefaultFormat
	}
	to := viper.GetString("to")
	if to == "" {
		to = conf.DefaultFormat
	}
	in, err := ParseEncoding(viper.GetString("in"))
	if err != nil {
		return err
	}
	out, err := ParseEncoding(viper.GetString("out"))
	if err != nil {
		return err
	}

	typeName := viper.GetString("type")
	desc, ok := r.Reflection.Descriptor(typeName)
	if !ok {
		return fmt.Errorf("unknown message %q (load it with --schema)", typeName)
	}
	msg, err := schema.New(desc)
	if err != nil {
		return fmt.Errorf("message %q: %w", typeName, err)
	}

	input, err := readInput(cmd, viper.GetString("file"))
	if err != nil {
		return err
	}
	data, err := in.Decode(input)
	if err != nil {
		return err
	}

	if err := factory.Deserialize(r.Factory(), data, from, &msg); err != nil {
		return fmt.Errorf("failed to decode %s as %s: %w", typeName, from, err)
	}
	result, err := factory.Serialize(r.Factory(), msg, to)
	if err != nil {
		return fmt.Errorf("failed to encode %s as %s: %w", typeName, to, err)
	}

	_, err = cmd.OutOrStdout().Write(out.Encode(result))
	return err
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}
