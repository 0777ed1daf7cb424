package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var dataCmd = &cobra.Command{
	Use:   "data <file> <variable>",
	Short: "Print a variable's values",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, varname := args[0], args[1]

		f, closeFile, err := openFile(path)
		if err != nil {
			return err
		}
		defer closeFile()

		n := -1
		for _, l := range f.Header.Lengths(varname) {
			if n < 0 {
				n = 1
			}
			n *= l
		}

		r := f.Reader(varname, nil, nil)
		if r == nil {
			return fmt.Errorf("ncdump: no such variable %q", varname)
		}
		buf := r.Zero(n)
		// A Read that fills buf returns a nil error. io.EOF, which Read
		// returns only when nothing at all could be read, is not treated
		// as a failure here.
		if _, err := r.Read(buf); err != nil && err != io.EOF {
			return err
		}

		if !cfg.MaskAndScale {
			fmt.Printf("%v\n", buf)
			return nil
		}

		values, mask, err := f.Header.MaskAndScale(varname, buf)
		if err != nil {
			return err
		}
		for i, v := range values {
			if mask != nil && mask[i] {
				fmt.Print("-- ")
				continue
			}
			fmt.Printf("%v ", v)
		}
		fmt.Println()
		return nil
	},
}
