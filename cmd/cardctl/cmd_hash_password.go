package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/security"
)

var hashFlags struct {
	password string
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print an Argon2id hash for " + config.EnvAdminPasswordHash,
	Long:  "Reads the password from --password or the first line of stdin and prints\nthe encoded hash using the MEMBERCARDS_ARGON_* parameters.",
	Args:  cobra.NoArgs,
	RunE:  runHashPassword,
}

func init() {
	hashPasswordCmd.Flags().StringVar(&hashFlags.password, "password", "", "Password to hash (default: read stdin)")
}

func runHashPassword(cmd *cobra.Command, _ []string) error {
	password := hashFlags.password
	if password == "" {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	var params config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &params); err != nil {
		return fmt.Errorf("parsing argon params: %w", err)
	}

	hash, err := security.HashPassword(password, params)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
