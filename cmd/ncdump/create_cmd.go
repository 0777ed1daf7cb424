package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	netcdf "github.com/pacificclimate/gonetcdf"
)

var (
	createDims []string
	createVars []string
)

var createCmd = &cobra.Command{
	Use:   "create <file>",
	Short: "Create an empty (fill-valued) NetCDF file from --dims/--vars flags",
	Long: `Create builds a header from repeated --dims name=length and
--vars name=dtype:dim1,dim2,... flags (dtype one of byte, char, short, int,
float, double), Defines it, writes it to <file> and fills every variable
with its default fill value. A length of 0 declares the unlimited
dimension, which must be given first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dimNames := make([]string, 0, len(createDims))
		dimLens := make([]int, 0, len(createDims))
		for _, d := range createDims {
			name, lenStr, ok := strings.Cut(d, "=")
			if !ok {
				return fmt.Errorf("ncdump: invalid --dims %q, want name=length", d)
			}
			n, err := strconv.Atoi(lenStr)
			if err != nil {
				return fmt.Errorf("ncdump: invalid --dims %q: %v", d, err)
			}
			dimNames = append(dimNames, name)
			dimLens = append(dimLens, n)
		}

		h, err := netcdf.NewHeader(dimNames, dimLens)
		if err != nil {
			return err
		}

		for _, v := range createVars {
			nameType, dimsStr, ok := strings.Cut(v, ":")
			if !ok {
				return fmt.Errorf("ncdump: invalid --vars %q, want name=dtype:dim1,dim2,...", v)
			}
			name, dtype, ok := strings.Cut(nameType, "=")
			if !ok {
				return fmt.Errorf("ncdump: invalid --vars %q, want name=dtype:dim1,dim2,...", v)
			}
			var dims []string
			if dimsStr != "" {
				dims = strings.Split(dimsStr, ",")
			}
			zero, err := zeroValueFor(dtype)
			if err != nil {
				return err
			}
			if err := h.AddVariable(name, dims, zero); err != nil {
				return err
			}
		}

		h.Define()

		ff, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer ff.Close()

		f, err := netcdf.Create(ff, h)
		if err != nil {
			return err
		}

		for _, name := range h.Variables() {
			if h.IsRecordVariable(name) {
				continue
			}
			if err := f.Fill(name); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	createCmd.Flags().StringArrayVar(&createDims, "dims", nil, "name=length, repeatable; first with length 0 is the unlimited dimension")
	createCmd.Flags().StringArrayVar(&createVars, "vars", nil, "name=dtype:dim1,dim2,..., repeatable")
}

func zeroValueFor(dtype string) (interface{}, error) {
	switch dtype {
	case "byte":
		return []uint8{}, nil
	case "char":
		return "", nil
	case "short":
		return []int16{}, nil
	case "int":
		return []int32{}, nil
	case "float":
		return []float32{}, nil
	case "double":
		return []float64{}, nil
	}
	return nil, fmt.Errorf("ncdump: unknown dtype %q", dtype)
}
