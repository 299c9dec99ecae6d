package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/jstrn/ninjarmm/pkg/ninja"
	"github.com/jstrn/ninjarmm/pkg/ninjaclient"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var (
		endpoint     string
		name         string
		clientID     string
		clientSecret string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to a NinjaRMM instance",
		Long:  "Authenticate with a NinjaRMM instance using OAuth2 client credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			// Get instance endpoint
			if endpoint == "" {
				endpoint = viper.GetString("instance")
			}

			if endpoint == "" {
				fmt.Printf("Instance URL [%s]: ", ninjaclient.EndpointUS)
				endpoint, _ = reader.ReadString('\n')

				endpoint = strings.TrimSpace(endpoint)
				if endpoint == "" {
					endpoint = ninjaclient.EndpointUS
				}
			}

			// Get client credentials
			if clientID == "" {
				fmt.Print("Client ID: ")
				clientID, _ = reader.ReadString('\n')
				clientID = strings.TrimSpace(clientID)
			}

			if clientSecret == "" {
				fmt.Print("Client secret: ")

				byteSecret, err := term.ReadPassword(int(syscall.Stdin))
				if err != nil {
					return fmt.Errorf("failed to read client secret: %w", err)
				}

				clientSecret = string(byteSecret)

				fmt.Println()
			}

			if clientID == "" || clientSecret == "" {
				return ErrClientCredentialsRequired
			}

			// Create client and verify the credentials work
			ctx := context.Background()

			client, err := ninjaclient.New(ctx, &ninja.Config{
				APIEndpoint:  endpoint,
				ClientID:     clientID,
				ClientSecret: clientSecret,
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}

			orgs, err := client.Organizations().List(ctx, ninja.NewQueryParams().WithPageSize(1))
			if err != nil {
				return fmt.Errorf("failed to connect to instance: %w", err)
			}

			// The client normalized the endpoint during construction;
			// re-apply the same normalization for storage.
			normalizedEndpoint := strings.TrimSuffix(endpoint, "/")
			if !strings.HasPrefix(normalizedEndpoint, "http://") && !strings.HasPrefix(normalizedEndpoint, "https://") {
				normalizedEndpoint = "https://" + normalizedEndpoint
			}

			configKey := name
			if configKey == "" {
				configKey = extractDomainFromEndpoint(normalizedEndpoint)
			}

			config := loadConfig()

			instance, exists := config.Instances[configKey]
			if !exists {
				instance = &InstanceConfig{}
				config.Instances[configKey] = instance
			}

			instance.Endpoint = normalizedEndpoint
			instance.ClientID = clientID
			instance.ClientSecret = clientSecret

			// Store the freshly issued token so the first command after
			// login skips a token round trip.
			if tokenGetter, ok := client.(interface {
				GetToken(context.Context) (string, error)
			}); ok {
				if token, err := tokenGetter.GetToken(ctx); err == nil && token != "" {
					instance.Token = token

					now := time.Now()
					instance.LastRefreshed = &now
				}
			}

			// Set as current instance if this is the first one or no
			// current instance is set
			if config.CurrentInstance == "" || len(config.Instances) == 1 {
				config.CurrentInstance = configKey
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Successfully logged in to %s\n", normalizedEndpoint)

			if config.CurrentInstance == configKey {
				fmt.Printf("Instance '%s' set as current target\n", configKey)
			}

			if len(orgs) > 0 {
				fmt.Println("\nCredentials verified against the organizations endpoint")
			}

			return nil
		},
	}

	// Add flags
	cmd.Flags().StringVarP(&endpoint, "api", "a", "", "instance URL (e.g. https://app.ninjarmm.com)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "short name to store the instance under")
	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")

	return cmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout from the current NinjaRMM instance",
		Long:  "Clear stored credentials for the current NinjaRMM instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			instance, name, err := getCurrentInstanceConfig(config)
			if err != nil {
				return err
			}

			instance.ClientSecret = ""
			instance.Token = ""
			instance.TokenExpiresAt = nil
			instance.RefreshToken = ""

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Successfully logged out of '%s'\n", name)

			return nil
		},
	}
}
