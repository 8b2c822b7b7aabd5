package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/GSC_GO/internal/category"
)

var presetShow string

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in client category presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if presetShow != "" {
			c, err := category.Preset(presetShow)
			if err != nil {
				return err
			}
			return printJSON(cmd, c)
		}
		for _, name := range category.PresetNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	presetsCmd.Flags().StringVar(&presetShow, "show", "", "print the resolved configuration of one preset")
	rootCmd.AddCommand(presetsCmd)
}
