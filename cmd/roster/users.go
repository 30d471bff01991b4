package main

import (
	"encoding/json"
	"fmt"

	"github.com/asaidimu/go-roster/core/pagination"
	"github.com/asaidimu/go-roster/core/query"
	"github.com/asaidimu/go-roster/internal/cli"
	"github.com/asaidimu/go-roster/users"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Query and register users",
}

var listFlags struct {
	includes []string
	selects  []string
	filter   string
	page     int
	take     int
	order    string
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users as YAML",
	Example: `  roster users list --include profile --take 5
  roster users list --filter '{"status":"VERIFIED","email":{"ilike":"%@example.com"}}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := query.QueryOptions{Includes: listFlags.includes, Selects: listFlags.selects}
		if listFlags.filter != "" {
			if err := json.Unmarshal([]byte(listFlags.filter), &opts.Filters); err != nil {
				return cli.GeneralError("parsing --filter", err)
			}
		}
		page := pagination.PageOptions{
			Order: pagination.Order(listFlags.order),
			Page:  listFlags.page,
			Take:  listFlags.take,
		}

		app, err := cli.Open(cmd.Context(), cfg, logger, cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer app.Close()

		result, err := app.Users.FindAll(cmd.Context(), page, opts)
		if err != nil {
			return cli.GeneralError("listing users", err)
		}
		return writeYAML(cmd, result)
	},
}

var createFlags users.CreateUserDto

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Open(cmd.Context(), cfg, logger, cfg.Database.AutoMigrate)
		if err != nil {
			return err
		}
		defer app.Close()

		dto := createFlags
		dto.PasswordConfirmation = dto.Password
		user, err := app.Users.Create(cmd.Context(), dto)
		if err != nil {
			return cli.GeneralError("creating user", err)
		}
		return writeYAML(cmd, user)
	},
}

func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}

func init() {
	f := usersListCmd.Flags()
	f.StringSliceVar(&listFlags.includes, "include", nil, "relation paths to join, e.g. profile")
	f.StringSliceVar(&listFlags.selects, "select", nil, "columns to return")
	f.StringVar(&listFlags.filter, "filter", "", "JSON filter object")
	f.IntVar(&listFlags.page, "page", 1, "page number")
	f.IntVar(&listFlags.take, "take", pagination.DefaultTake, "page size")
	f.StringVar(&listFlags.order, "order", string(pagination.OrderDesc), "creation order, ASC or DESC")

	c := usersCreateCmd.Flags()
	c.StringVar(&createFlags.Email, "email", "", "email address")
	c.StringVar(&createFlags.Name, "name", "", "display name")
	c.StringVar(&createFlags.Password, "password", "", "password")
	c.StringVar((*string)(&createFlags.Role), "role", string(users.RoleUser), "role (user, super_admin)")
	c.StringVar(&createFlags.Bio, "bio", "", "profile bio")
	_ = usersCreateCmd.MarkFlagRequired("email")
	_ = usersCreateCmd.MarkFlagRequired("name")
	_ = usersCreateCmd.MarkFlagRequired("password")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
}
