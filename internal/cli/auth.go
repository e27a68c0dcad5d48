package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/skyplay/internal/browser"
	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/spotify/auth"
)

const loginTimeout = 5 * time.Minute

var authNoBrowser bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for managing Spotify OAuth authentication.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long: `Opens a browser to authenticate with Spotify. A local server on the
configured redirect URI receives the authorization code.`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored Spotify credentials",
	Long:  `Removes the stored Spotify OAuth tokens from the local machine.`,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Shows the current Spotify authentication status.`,
	RunE:  runAuthStatus,
}

func init() {
	authLoginCmd.Flags().BoolVar(&authNoBrowser, "no-browser", false, "print the login URL instead of opening a browser")
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	authCfg := authConfig(cfg)
	if authCfg.ClientID == "" {
		return apperr.WithSuggestion(apperr.ErrInvalidConfig,
			"Set spotify.client_id in ~/.skyplayrc or via SKYPLAY_SPOTIFY_CLIENT_ID")
	}

	pkce, err := auth.NewPKCE()
	if err != nil {
		return fmt.Errorf("failed to generate PKCE: %w", err)
	}

	addr, path, err := authCfg.CallbackAddr()
	if err != nil {
		return err
	}
	callbackServer, err := auth.NewCallbackServer(addr, path)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	callbackServer.Start()
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	authURL := authCfg.AuthURL(pkce)
	if authNoBrowser {
		printLoginURL(authURL)
	} else {
		fmt.Println("Opening browser for Spotify authentication...")
		if err := browser.Open(authURL); err != nil {
			logger.Debug().Err(err).Msg("browser_open_failed")
			fmt.Println("Could not open browser automatically.")
			printLoginURL(authURL)
		}
	}

	fmt.Println("Waiting for authentication...")
	ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
	defer cancel()

	result, err := callbackServer.Wait(ctx)
	if err != nil {
		return fmt.Errorf("authentication timed out: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("authentication failed: %s", result.Error)
	}
	if result.State != pkce.State {
		return fmt.Errorf("state mismatch: possible CSRF attack")
	}

	fmt.Println("Exchanging code for tokens...")
	token, err := auth.NewTokenEndpoint(authCfg.Credentials()).Exchange(ctx, result.Code, authCfg.RedirectURI, pkce.Verifier)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	spotifyClient, _, err := newSpotifyClient(cfg)
	if err != nil {
		return err
	}
	if err := spotifyClient.SetToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	user, err := spotifyClient.GetCurrentUser(ctx)
	if err != nil {
		fmt.Println("Authentication successful! Token stored.")
		return nil
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":       "authenticated",
			"user_id":      user.ID,
			"display_name": user.DisplayName,
			"email":        user.Email,
			"product":      user.Product,
		})
	}
	fmt.Printf("Successfully authenticated as %s (%s)\n", user.DisplayName, user.Email)
	return nil
}

func printLoginURL(authURL string) {
	if err := clipboard.WriteAll(authURL); err == nil {
		fmt.Println("The login URL has been copied to your clipboard.")
	}
	fmt.Printf("Please open this URL in your browser:\n\n%s\n\n", authURL)
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	storage, err := auth.NewTokenStorage(cfg.Spotify.TokenPath)
	if err != nil {
		return fmt.Errorf("failed to initialize token storage: %w", err)
	}

	if !storage.Exists() {
		if JSONOutput() {
			return printJSON(map[string]string{"status": "not_authenticated"})
		}
		fmt.Println("Not authenticated with Spotify.")
		return nil
	}

	if err := storage.Delete(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	if JSONOutput() {
		return printJSON(map[string]string{"status": "logged_out"})
	}
	fmt.Println("Logged out of Spotify.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	spotifyClient, storage, err := newSpotifyClient(cfg)
	if err != nil {
		return err
	}

	token, err := storage.Load()
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if token == nil {
		if JSONOutput() {
			return printJSON(map[string]any{"authenticated": false})
		}
		fmt.Println("Not authenticated with Spotify.")
		fmt.Println("Run 'skyplay auth login' to authenticate.")
		return nil
	}

	user, err := spotifyClient.GetCurrentUser(cmd.Context())
	if err != nil {
		if JSONOutput() {
			return printJSON(map[string]any{
				"authenticated": true,
				"expired":       token.IsExpired(),
				"error":         err.Error(),
				"kind":          apperr.KindOf(err).String(),
			})
		}
		fmt.Printf("Token may be expired or invalid: %v\n", err)
		fmt.Println("Run 'skyplay auth login' to re-authenticate.")
		return nil
	}

	// A successful request may have refreshed the token.
	if refreshed, err := storage.Load(); err == nil && refreshed != nil {
		token = refreshed
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"authenticated": true,
			"expired":       false,
			"user_id":       user.ID,
			"display_name":  user.DisplayName,
			"email":         user.Email,
			"product":       user.Product,
			"expires_at":    token.ExpiresAt,
			"token_path":    storage.Path(),
		})
	}

	fmt.Printf("Authenticated as: %s (%s)\n", user.DisplayName, user.Email)
	fmt.Printf("Account type: %s\n", user.Product)
	fmt.Printf("Token expires: %s (%s)\n", humanize.Time(token.ExpiresAt), token.ExpiresAt.Format(time.RFC3339))
	if Verbose() {
		fmt.Printf("Token file: %s\n", storage.Path())
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
