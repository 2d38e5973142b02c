package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tugsousa/taxlots/internal/config"
)

var splitsCmd = &cobra.Command{
	Use:   "splits [path]",
	Short: "Validate and print a stock-split table file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := config.LoadSplitTable(args[0])
		if err != nil {
			return err
		}

		sort.Slice(events, func(i, j int) bool {
			if events[i].ProductID != events[j].ProductID {
				return events[i].ProductID < events[j].ProductID
			}
			return events[i].CutOff.Before(events[j].CutOff)
		})

		for _, ev := range events {
			fmt.Printf("%s: %d:%d effective %s\n", ev.ProductID, ev.Numerator, ev.Denominator, ev.CutOff.Format("2006-01-02"))
		}
		fmt.Printf("%d split event(s) configured, valid\n", len(events))
		return nil
	},
}
