package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("# %s\n", cfgFile)
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(cfg)
	},
}
