package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var secretKey string

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage profile secrets",
	Long:  "Read and write secrets in the OS keychain, scoped to a profile.",
}

// secretKeyOrDefault returns --key or the configured secret key.
func secretKeyOrDefault() string {
	if secretKey != "" {
		return secretKey
	}
	return globalConfig.GetSecretKey()
}

var secretSetCmd = &cobra.Command{
	Use:   "set [value]",
	Short: "Store a secret (reads stdin when no value is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value string
		if len(args) > 0 {
			value = args[0]
		} else {
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read secret from stdin: %w", err)
			}
			value = strings.TrimRight(line, "\r\n")
		}

		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		key := secretKeyOrDefault()
		if err := client.SetSecret(cmd.Context(), pid, key, value); err != nil {
			return fmt.Errorf("set secret: %w", err)
		}
		fmt.Printf("🦞 Saved secret: %s\n", key)
		return nil
	},
}

var secretGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print a secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		key := secretKeyOrDefault()
		v, err := client.GetSecret(cmd.Context(), pid, key)
		if err != nil {
			return fmt.Errorf("get secret: %w", err)
		}
		if v == nil {
			return fmt.Errorf("secret %s is not set", key)
		}
		fmt.Println(*v)
		return nil
	},
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := MustConnect()
		defer client.Close()

		pid, err := targetProfile(cmd.Context(), client)
		if err != nil {
			return err
		}
		key := secretKeyOrDefault()
		if err := client.DeleteSecret(cmd.Context(), pid, key); err != nil {
			return fmt.Errorf("delete secret: %w", err)
		}
		fmt.Printf("🦞 Deleted secret: %s\n", key)
		return nil
	},
}

func init() {
	secretCmd.PersistentFlags().StringVarP(&secretKey, "key", "k", "", "secret key (default from config, gateway.token)")

	secretCmd.AddCommand(secretSetCmd)
	secretCmd.AddCommand(secretGetCmd)
	secretCmd.AddCommand(secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}
