package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Someblueman/phpattr/internal/config"
	"github.com/Someblueman/phpattr/internal/metadata"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write an example configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return err
		}
		if err := config.WriteExample(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var compileIndexCmd = &cobra.Command{
	Use:   "compile-index <index.yaml>",
	Short: "Validate a YAML metadata index and compile it to msgpack",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompileIndex,
}

func init() {
	compileIndexCmd.Flags().StringP("output", "o", "", "output path (default: input with .msgpack extension)")
}

func runCompileIndex(cmd *cobra.Command, args []string) error {
	src := args[0]
	out, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if out == "" {
		out = strings.TrimSuffix(src, filepath.Ext(src)) + ".msgpack"
	}
	doc, err := metadata.Compile(src, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Compiled %s: %d definitions, %d declarations -> %s\n",
		src, len(doc.Definitions), len(doc.Declarations), out)
	return nil
}
