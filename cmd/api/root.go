package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "accounts-api",
		Short:        "Servicio de cuentas de usuario",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if err := godotenv.Load(); err != nil {
				log.Printf("warning: loading .env: %v", err)
			}
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}
