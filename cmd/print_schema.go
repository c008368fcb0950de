package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hertta/internal/arrowbatch"
	"github.com/sells-group/hertta/internal/model"
)

var printSchemaCmd = &cobra.Command{
	Use:   "print-schema",
	Short: "Print the Arrow schema of every record batch Hertta emits",
	RunE: func(cmd *cobra.Command, _ []string) error {
		empty := &model.InputData{}
		batches, err := arrowbatch.BuildBatches(empty)
		if err != nil {
			return eris.Wrap(err, "print-schema: build batches")
		}
		for _, b := range batches {
			fmt.Printf("%s:\n%s\n", b.Key, b.Record.Schema().String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(printSchemaCmd)
}
