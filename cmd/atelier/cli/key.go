package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/julieginest/prjCyberA3/internal/auth"
	"github.com/julieginest/prjCyberA3/internal/config"
	"github.com/julieginest/prjCyberA3/internal/store"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and revoke the API keys machine callers use against the atelier API.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyRevokeCmd())

	return cmd
}

// keyService opens the store and builds an APIKeys service around it. The
// caller must call both closers.
func keyService() (*auth.APIKeys, *store.Store, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Auth.APIKeySecret == "" {
		return nil, nil, nil, fmt.Errorf("auth.api_key_secret is not set")
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return auth.NewAPIKeys(st, []byte(cfg.Auth.APIKeySecret), logger), st, cfg, nil
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var (
		userEmail string
		name      string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new API key",
		Long:  "Generate an API key owned by a user. The plaintext key is shown once and cannot be retrieved again.",
		Example: `  atelier key create --user ana@example.com --name "CI pipeline"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(userEmail, name)
		},
	}

	cmd.Flags().StringVar(&userEmail, "user", "", "Email of the owning user (required)")
	cmd.Flags().StringVar(&name, "name", "", "Name for the key (required)")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("name")

	return cmd
}

func runKeyCreate(userEmail, name string) error {
	keys, st, _, err := keyService()
	if err != nil {
		return err
	}
	defer st.Close()
	defer keys.Close()

	ctx := context.Background()

	user, err := st.GetUserByEmail(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("unknown user %q", userEmail)
	}

	issued, err := keys.Issue(ctx, user.ID, name)
	if err != nil {
		return fmt.Errorf("issue key: %w", err)
	}

	fmt.Printf("Created API key %q for %s\n\n", name, userEmail)
	fmt.Printf("  %s\n\n", issued.Plaintext)
	fmt.Println("Store this key now. It will not be shown again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		userEmail  string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List a user's API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(userEmail, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&userEmail, "user", "", "Email of the owning user (required)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.MarkFlagRequired("user")

	return cmd
}

func runKeyList(userEmail string, jsonOutput bool) error {
	keys, st, _, err := keyService()
	if err != nil {
		return err
	}
	defer st.Close()
	defer keys.Close()

	ctx := context.Background()

	user, err := st.GetUserByEmail(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("unknown user %q", userEmail)
	}

	list, err := keys.List(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Printf("No API keys for %s.\n", userEmail)
		return nil
	}

	fmt.Printf("%-38s %-24s %-8s %-20s\n", "ID", "NAME", "REVOKED", "LAST USED")
	fmt.Printf("%-38s %-24s %-8s %-20s\n", "--", "----", "-------", "---------")
	for _, k := range list {
		lastUsed := "never"
		if k.LastUsedAt != nil {
			lastUsed = k.LastUsedAt.Format("2006-01-02 15:04:05")
		}
		revoked := "no"
		if k.Revoked {
			revoked = "yes"
		}
		fmt.Printf("%-38s %-24s %-8s %-20s\n", k.ID, k.Name, revoked, lastUsed)
	}

	return nil
}

// ---------- key revoke ----------

func newKeyRevokeCmd() *cobra.Command {
	var userEmail string

	cmd := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyRevoke(userEmail, args[0])
		},
	}

	cmd.Flags().StringVar(&userEmail, "user", "", "Email of the owning user (required)")
	cmd.MarkFlagRequired("user")

	return cmd
}

func runKeyRevoke(userEmail, keyID string) error {
	keys, st, _, err := keyService()
	if err != nil {
		return err
	}
	defer st.Close()
	defer keys.Close()

	ctx := context.Background()

	user, err := st.GetUserByEmail(ctx, userEmail)
	if err != nil {
		return fmt.Errorf("unknown user %q", userEmail)
	}

	if err := keys.Revoke(ctx, user.ID, keyID); err != nil {
		return fmt.Errorf("revoke key: %w", err)
	}

	fmt.Printf("Revoked API key %s\n", keyID)
	return nil
}
