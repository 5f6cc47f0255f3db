package inspect

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ValentinKolb/grl/cmd/util"
	"github.com/ValentinKolb/grl/rpc/descriptor"
	"github.com/ValentinKolb/grl/rpc/registration"
	"github.com/spf13/cobra"
)

var (
	registrar *registration.Registrar

	// InspectCommands represents the inspect command group
	InspectCommands = &cobra.Command{
		Use:               "inspect",
		Short:             "Show what is registered",
		PersistentPreRunE: setupRegistrar,
	}

	formatsCmd = &cobra.Command{
		Use:   "formats",
		Short: "List the registered generic formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printFormats(cmd.OutOrStdout(), registrar)
		},
	}

	typesCmd = &cobra.Command{
		Use:   "types",
		Short: "List the registered messages and the Go types mapped to them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printTypes(cmd.OutOrStdout(), registrar)
		},
	}

	describeCmd = &cobra.Command{
		Use:   "describe <message>",
		Short: "Print the fields of a registered message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDescriptor(cmd.OutOrStdout(), registrar, args[0])
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			conf := registrar.Config()
			_, _ = fmt.Fprint(cmd.OutOrStdout(), conf.String())
		},
	}
)

func init() {
	// Add subcommands
	InspectCommands.AddCommand(formatsCmd)
	InspectCommands.AddCommand(typesCmd)
	InspectCommands.AddCommand(describeCmd)
	InspectCommands.AddCommand(configCmd)
}

// setupRegistrar builds the registrar every inspect command reads from
func setupRegistrar(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	r, err := util.NewRegistrar()
	if err != nil {
		return err
	}
	registrar = r
	return nil
}

// --------------------------------------------------------------------------
// Output
// --------------------------------------------------------------------------

func printFormats(w io.Writer, r *registration.Registrar) error {
	for _, format := range r.Serializers.Formats() {
		if _, err := fmt.Fprintln(w, format); err != nil {
			return err
		}
	}
	return nil
}

func printTypes(w io.Writer, r *registration.Registrar) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "MESSAGE\tFIELDS\tGO TYPE")
	for _, name := range r.Reflection.Names() {
		desc, _ := r.Reflection.Descriptor(name)
		goType := "-"
		if t, ok := r.TypeNames.TypeOf(name); ok {
			goType = t.String()
		} else if desc.Owner != nil {
			goType = desc.Owner.String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", name, len(desc.Fields), goType)
	}
	return tw.Flush()
}

func printDescriptor(w io.Writer, r *registration.Registrar, name string) error {
	desc, ok := r.Reflection.Descriptor(name)
	if !ok {
		return fmt.Errorf("no message registered under %q", name)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "message %s\n", desc.Name)
	_, _ = fmt.Fprintln(tw, "NUMBER\tNAME\tTYPE")
	for _, f := range desc.Fields {
		typ := f.Type.String()
		if f.Type == descriptor.Message && f.Message != nil {
			typ = fmt.Sprintf("%s (%s)", typ, f.Message.Name)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", f.Number, f.Name, typ)
	}
	return tw.Flush()
}
