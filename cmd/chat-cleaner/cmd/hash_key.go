package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chatcleaner/chat-cleaner/internal/domain/auth"
)

var hashKeyGenerate bool

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [api-key]",
	Short: "Generate an argon2id hash for the admin API key",
	Long: `Generate an argon2id hash of an API key for use in config.

The output can be used directly in the admin.api_key_hash field.
With --generate a fresh random key is created and printed with its hash.

Example:
  chat-cleaner hash-key "my-secret-api-key"
  # Output: $argon2id$v=19$m=47104,t=1,p=1$...

  chat-cleaner hash-key --generate

Security note: The key will appear in shell history.
Consider clearing history after use or using an environment variable:
  chat-cleaner hash-key "$MY_API_KEY"`,
	Args: func(cmd *cobra.Command, args []string) error {
		if hashKeyGenerate {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		key := ""
		if hashKeyGenerate {
			generated, err := auth.GenerateKey()
			if err != nil {
				return err
			}
			key = generated
			fmt.Fprintf(out, "key:  %s\n", key)
		} else {
			key = args[0]
		}

		hash, err := auth.HashKey(key)
		if err != nil {
			return err
		}
		if hashKeyGenerate {
			fmt.Fprintf(out, "hash: %s\n", hash)
			return nil
		}
		fmt.Fprintln(out, hash)
		return nil
	},
}

func init() {
	hashKeyCmd.Flags().BoolVar(&hashKeyGenerate, "generate", false, "generate a random key and print it with its hash")
	rootCmd.AddCommand(hashKeyCmd)
}
