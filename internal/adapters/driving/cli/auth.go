package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ocrchat/ocrchat-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the access token",
	Long: `Store, inspect, or remove the bearer token used to talk to the OCR service.

ocrchat does not sign you in. Copy the access token from the web app and
store it with 'ocrchat auth login'. The OCRCHAT_TOKEN environment variable
takes precedence over the stored token.

Examples:
  # Paste the token at the hidden prompt
  ocrchat auth login

  # Non-interactive
  ocrchat auth login --token "$TOKEN"

  # Show who the token belongs to and when it expires
  ocrchat auth status`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active token",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

// authLoginToken is the --token flag of auth login.
var authLoginToken string

// tokenReader reads the token when --token is not given.
var tokenReader = readPassword

func init() {
	authLoginCmd.Flags().StringVar(&authLoginToken, "token", "", "Access token (prompted for if omitted)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	token := authLoginToken
	if token == "" {
		cmd.Print("Access token: ")
		token = tokenReader(cmd.InOrStdin())
		cmd.Println()
	}

	info, err := authService.Login(token)
	if err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	cmd.Println("Token saved.")
	printTokenInfo(cmd, info)
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	info, err := authService.Status(cmd.Context())
	if errors.Is(err, domain.ErrAuthRequired) {
		cmd.Println("Not logged in. Run 'ocrchat auth login'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	printTokenInfo(cmd, info)
	if info.Expired(time.Now()) {
		cmd.Println("  The token has expired. Run 'ocrchat auth login' again.")
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if authService == nil {
		return errors.New("auth service not configured")
	}

	if err := authService.Logout(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}

	cmd.Println("Stored token removed.")
	if os.Getenv("OCRCHAT_TOKEN") != "" {
		cmd.Println("OCRCHAT_TOKEN is still set and will be used.")
	}
	return nil
}

func printTokenInfo(cmd *cobra.Command, info *domain.TokenInfo) {
	cmd.Printf("  Source:   %s\n", info.Source)
	if info.Subject != "" {
		cmd.Printf("  Subject:  %s\n", info.Subject)
	}
	if info.Email != "" {
		cmd.Printf("  Email:    %s\n", info.Email)
	}
	if !info.ExpiresAt.IsZero() {
		cmd.Printf("  Expires:  %s\n", info.ExpiresAt.Local().Format(timeLayout))
	}
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword(in io.Reader) string {
	// Try to read without echo
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(in)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
