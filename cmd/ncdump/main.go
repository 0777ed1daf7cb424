// Command ncdump inspects and creates NetCDF classic files.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pacificclimate/gonetcdf/internal/config"
)

var (
	cfgPath string
	cfg     config.Config

	root = &cobra.Command{
		Use:   "ncdump",
		Short: "Inspect and create NetCDF classic (V1/V2) files",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgPath)
			return err
		},
	}
)

func main() {
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to an optional TOML config file")
	root.AddCommand(headerCmd, dataCmd, createCmd)

	if err := root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
