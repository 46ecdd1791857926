package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/flamel/flamel/internal/logutil"
)

var release string

func main() {
	logutil.ConfigureLogger()

	root := &cobra.Command{
		Use:           "flamel",
		Short:         "Interactive flame graphs from collapsed stack profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newGenCommand(), newGenBatchCommand(), newServeCommand())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
