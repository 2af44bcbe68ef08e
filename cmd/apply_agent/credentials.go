package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/apply-agent/internal/session"
	"github.com/spf13/cobra"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage the job board password in the system keyring",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the password for a username",
	Long: `Stores the password in the system keyring so it does not have to live in the
environment. The password is read from the first line of standard input unless
--password is given.`,
	RunE: runCredentialsSet,
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored password for a username",
	RunE:  runCredentialsDelete,
}

var (
	credUsername string
	credPassword string
)

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsDeleteCmd)

	credentialsCmd.PersistentFlags().StringVarP(&credUsername, "username", "u", "", "Login username (defaults to "+session.EnvUsername+")")
	credentialsSetCmd.Flags().StringVar(&credPassword, "password", "", "Password to store (read from stdin when empty)")
}

func credentialsUsername() string {
	if credUsername != "" {
		return credUsername
	}
	return strings.TrimSpace(os.Getenv(session.EnvUsername))
}

func runCredentialsSet(cmd *cobra.Command, _ []string) error {
	username := credentialsUsername()
	password := credPassword
	if password == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Password for %s: ", username)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if err := session.SetPassword(username, password); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password stored for %s\n", username)
	return nil
}

func runCredentialsDelete(cmd *cobra.Command, _ []string) error {
	username := credentialsUsername()
	if err := session.DeletePassword(username); err != nil {
		return fmt.Errorf("failed to delete password: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Password removed for %s\n", username)
	return nil
}
