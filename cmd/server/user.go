package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/service"
)

var (
	userName     string
	userEmail    string
	userJobTitle string
	userRole     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage dashboard users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user directly in the store, e.g. the first owner",
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		users := service.NewUserService(store, logger)
		return addUser(cmd, users)
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "login e-mail, unique")
	userAddCmd.Flags().StringVar(&userJobTitle, "job-title", "", "job title")
	userAddCmd.Flags().StringVar(&userRole, "role", string(domain.RoleOwner), "owner, manager, mechanic or attendant")
	_ = userAddCmd.MarkFlagRequired("name")
	_ = userAddCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userAddCmd)
}

func addUser(cmd *cobra.Command, users *service.UserService) error {
	user, err := users.Register(cmd.Context(), service.UserInput{
		Name:     userName,
		Email:    userEmail,
		JobTitle: userJobTitle,
		Role:     domain.Role(userRole),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
