package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func newRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Inspect roles and their permissions",
	}

	cmd.AddCommand(newRoleListCmd())

	return cmd
}

func newRoleListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleList(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runRoleList(jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	roles, err := st.ListRoles(context.Background())
	if err != nil {
		return fmt.Errorf("list roles: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(roles)
	}

	for _, role := range roles {
		fmt.Printf("%s  %s\n", role.Name, role.Description)
		perms := role.Permissions()
		names := make([]string, 0, len(perms))
		for name := range perms {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			mark := " "
			if perms[name] {
				mark = "x"
			}
			fmt.Printf("  [%s] %s\n", mark, name)
		}
		fmt.Println()
	}

	return nil
}
