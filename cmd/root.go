package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/grl/cmd/bench"
	"github.com/ValentinKolb/grl/cmd/convert"
	"github.com/ValentinKolb/grl/cmd/inspect"
	"github.com/ValentinKolb/grl/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "grl",
		Short: "reflection based serialization toolkit",
		Long: fmt.Sprintf(`grl (v%s)

A serialization core for Go: types are described once by a message
descriptor and can then be encoded in every registered format, either by a
specialized serializer or by the generic descriptor driven fallback.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of grl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("grl v%s\n", Version)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(convert.ConvertCmd)
	RootCmd.AddCommand(inspect.InspectCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupConfigFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
