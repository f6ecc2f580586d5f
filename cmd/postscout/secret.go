package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/postscout/internal/config"
)

var secretEmail string

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the LinkedIn password in the OS keyring",
}

var secretSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the LinkedIn password (read from stdin)",
	Long:  "Reads the password from the first line of stdin and stores it in the OS keyring under the LinkedIn email.",
	RunE:  runSecretSet,
}

var secretDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored LinkedIn password",
	RunE:  runSecretDelete,
}

func init() {
	secretCmd.PersistentFlags().StringVar(&secretEmail, "email", "", "LinkedIn email used as the keyring account (default: linkedin.email)")
	secretCmd.AddCommand(secretSetCmd, secretDeleteCmd)
	rootCmd.AddCommand(secretCmd)
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig()
	email := secretAccount(cfg)

	if f, ok := cmd.InOrStdin().(*os.File); ok && f == os.Stdin {
		fmt.Fprint(cmd.ErrOrStderr(), "LinkedIn password: ")
	}
	password, err := readPassword(cmd.InOrStdin())
	if err != nil {
		logger.Error("failed to read password", "error", err)
		os.Exit(1)
	}

	if err := config.StorePassword(email, password); err != nil {
		logger.Error("failed to store password", "email", email, "error", err)
		return err
	}
	logger.Info("password stored in keyring", "service", config.KeyringService, "email", email)
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig()
	email := secretAccount(cfg)

	if err := config.DeletePassword(email); err != nil {
		logger.Error("failed to delete password", "email", email, "error", err)
		return err
	}
	logger.Info("password removed from keyring", "email", email)
	return nil
}

func secretAccount(cfg *config.Config) string {
	if secretEmail != "" {
		return secretEmail
	}
	return cfg.LinkedIn.Email
}

// readPassword returns the first line of r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
