package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title Clinical Record & Prescription API
// @version 1.0
// @description Historias clínicas, recetas con código de verificación, dispensación y auditoría.
// @BasePath /

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:   "rxcore",
		Short: "Clinical records, prescriptions and dispensing service.",
		// Sin subcomando: serve.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path (optional)")

	root.AddCommand(newServeCommand(), newMigrateCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
