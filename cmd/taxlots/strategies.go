package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tugsousa/taxlots/internal/config"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies [path]",
	Short: "Validate and print a year->strategy configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := config.LoadStrategyMap(args[0])
		if err != nil {
			return err
		}

		years := make([]int, 0, len(m))
		for y := range m {
			years = append(years, y)
		}
		sort.Ints(years)

		for _, y := range years {
			fmt.Printf("%d: %s\n", y, m[y])
		}
		fmt.Printf("%d year(s) configured, valid\n", len(m))
		return nil
	},
}
