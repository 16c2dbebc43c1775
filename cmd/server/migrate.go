package main

import (
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the MySQL tables if they do not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("schema up to date")
		return nil
	},
}
