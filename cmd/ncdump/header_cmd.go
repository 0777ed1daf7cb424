package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	netcdf "github.com/pacificclimate/gonetcdf"
)

var headerCmd = &cobra.Command{
	Use:   "header <file>",
	Short: "Print a NetCDF file's parsed header",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, closeFile, err := openFile(args[0])
		if err != nil {
			return err
		}
		defer closeFile()

		fmt.Print(f.Header.String())
		return nil
	},
}

// openFile opens args[0] respecting the --config-selected mmap setting. The
// returned closer releases whatever resources were acquired (the memory
// map, or the plain *os.File) and should always be deferred.
func openFile(path string) (*netcdf.File, func() error, error) {
	if cfg.Mmap {
		f, err := netcdf.OpenMmap(path)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}

	osf, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := netcdf.Open(osf)
	if err != nil {
		osf.Close()
		return nil, nil, err
	}
	return f, osf.Close, nil
}
