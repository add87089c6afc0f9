package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/auth/store"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/config"
	"github.com/nguyenngoctoan/high-yield-dividend-analysis-sub002/pkg/limits"
)

var keysFlags struct {
	userID    string
	tier      string
	test      bool
	expiresIn time.Duration
	keyID     string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
	Long: `Generate, list and revoke API keys in the configured store.

The plaintext key is printed exactly once at generation; only its SHA-256
hash is stored.

Examples:
  # Generate a pro-tier key
  divapi keys generate --user-id user-42 --tier pro

  # Generate a test-mode key that expires in 30 days
  divapi keys generate --user-id user-42 --test --expires-in 720h

  # List all keys
  divapi keys list

  # Revoke a key
  divapi keys revoke --key-id 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new API key",
	RunE:  generateAPIKey,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all API keys",
	RunE:  listAPIKeys,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke an API key",
	RunE:  revokeAPIKey,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd, keysListCmd, keysRevokeCmd)

	keysGenerateCmd.Flags().StringVar(&keysFlags.userID, "user-id", "", "owning user ID (required)")
	keysGenerateCmd.Flags().StringVar(&keysFlags.tier, "tier", "free", "quota tier (free, pro, enterprise)")
	keysGenerateCmd.Flags().BoolVar(&keysFlags.test, "test", false, "generate a test-mode key")
	keysGenerateCmd.Flags().DurationVar(&keysFlags.expiresIn, "expires-in", 0, "key lifetime (0 = never expires)")
	_ = keysGenerateCmd.MarkFlagRequired("user-id")

	keysRevokeCmd.Flags().StringVar(&keysFlags.keyID, "key-id", "", "key ID to revoke (required)")
	_ = keysRevokeCmd.MarkFlagRequired("key-id")
}

// cliStore opens the configured store for a one-shot CLI operation.
func cliStore() (store.Store, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.Backend == "memory" {
		return nil, fmt.Errorf("key management requires a persistent store backend")
	}
	return store.NewSQLiteStore(cfg.Store.Path)
}

func generateAPIKey(cmd *cobra.Command, args []string) error {
	tier, ok := limits.ParseTier(keysFlags.tier)
	if !ok || tier == limits.TierAnonymous {
		return fmt.Errorf("unknown tier %q (expected free, pro or enterprise)", keysFlags.tier)
	}

	s, err := cliStore()
	if err != nil {
		return err
	}
	defer s.Close()

	key, err := auth.GenerateKey(!keysFlags.test)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	rec := store.KeyRecord{
		ID:        uuid.NewString(),
		UserID:    keysFlags.userID,
		KeyHash:   auth.HashKey(key),
		KeyPrefix: auth.DisplayPrefix(key),
		Tier:      string(tier),
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if keysFlags.expiresIn > 0 {
		expiry := time.Now().UTC().Add(keysFlags.expiresIn)
		rec.ExpiresAt = &expiry
	}

	if err := s.Insert(cmd.Context(), &rec); err != nil {
		return fmt.Errorf("failed to store key: %w", err)
	}

	fmt.Printf("Key ID:  %s\n", rec.ID)
	fmt.Printf("User:    %s\n", rec.UserID)
	fmt.Printf("Tier:    %s\n", rec.Tier)
	if rec.ExpiresAt != nil {
		fmt.Printf("Expires: %s\n", rec.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Println()
	fmt.Printf("API key: %s\n", key)
	fmt.Println()
	fmt.Println("Store this key securely. It cannot be recovered, only revoked.")

	return nil
}

func listAPIKeys(cmd *cobra.Command, args []string) error {
	s, err := cliStore()
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY ID\tUSER\tPREFIX\tTIER\tACTIVE\tREQUESTS\tEXPIRES")
	for _, rec := range records {
		expires := "-"
		if rec.ExpiresAt != nil {
			expires = rec.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s...\t%s\t%t\t%d\t%s\n",
			rec.ID, rec.UserID, rec.KeyPrefix, rec.Tier, rec.Active, rec.RequestCount, expires)
	}
	return w.Flush()
}

func revokeAPIKey(cmd *cobra.Command, args []string) error {
	s, err := cliStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Revoke(cmd.Context(), keysFlags.keyID); err != nil {
		if err == store.ErrNotFound {
			return fmt.Errorf("no key with ID %q", keysFlags.keyID)
		}
		return fmt.Errorf("failed to revoke key: %w", err)
	}

	fmt.Printf("Key %s revoked\n", keysFlags.keyID)
	return nil
}
