package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jstrn/ninjarmm/internal/auth"
	"github.com/jstrn/ninjarmm/internal/client"
	"github.com/jstrn/ninjarmm/internal/constants"
	"github.com/jstrn/ninjarmm/pkg/ninja"
)

// Config represents the CLI configuration.
type Config struct {
	// Multi-instance configuration
	Instances       map[string]*InstanceConfig `json:"instances,omitempty"        yaml:"instances,omitempty"`
	CurrentInstance string                     `json:"current_instance,omitempty" yaml:"current_instance,omitempty"`

	// Global settings
	Output string `json:"output" yaml:"output"`
}

// InstanceConfig represents configuration for a single NinjaRMM instance.
type InstanceConfig struct {
	Endpoint       string     `json:"endpoint"                   yaml:"endpoint"`
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`
}

// loadConfig reads the CLI configuration from viper.
func loadConfig() *Config {
	config := &Config{
		Output:          viper.GetString("output"),
		CurrentInstance: viper.GetString("current_instance"),
		Instances:       make(map[string]*InstanceConfig),
	}

	instancesRaw := viper.GetStringMap("instances")
	for name, instanceRaw := range instancesRaw {
		if instanceMap, ok := instanceRaw.(map[string]interface{}); ok {
			config.Instances[name] = parseInstanceConfig(instanceMap)
		}
	}

	return config
}

// parseInstanceConfig parses instance configuration from a map.
func parseInstanceConfig(instanceMap map[string]interface{}) *InstanceConfig {
	instance := &InstanceConfig{}

	stringFields := map[string]*string{
		"endpoint":      &instance.Endpoint,
		"client_id":     &instance.ClientID,
		"client_secret": &instance.ClientSecret,
		"token":         &instance.Token,
		"refresh_token": &instance.RefreshToken,
	}

	for key, field := range stringFields {
		if value, ok := instanceMap[key].(string); ok {
			*field = value
		}
	}

	if expiresAt := parseTimeField(instanceMap["token_expires_at"]); expiresAt != nil {
		instance.TokenExpiresAt = expiresAt
	}

	if refreshed := parseTimeField(instanceMap["last_refreshed"]); refreshed != nil {
		instance.LastRefreshed = refreshed
	}

	return instance
}

// parseTimeField parses a timestamp that viper may surface as a string or a
// time.Time depending on the config source.
func parseTimeField(raw interface{}) *time.Time {
	switch value := raw.(type) {
	case time.Time:
		return &value
	case string:
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil
		}

		return &parsed
	default:
		return nil
	}
}

func saveConfigStruct(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get user home directory: %w", err)
		}

		configDir := filepath.Join(home, ".ninja")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		configFile = filepath.Join(configDir, "config.yml")
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// extractDomainFromEndpoint extracts the host portion from an instance URL
// for use as a config key.
func extractDomainFromEndpoint(endpoint string) string {
	domain := endpoint
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")

	if idx := strings.Index(domain, "/"); idx != -1 {
		domain = domain[:idx]
	}

	if idx := strings.Index(domain, ":"); idx != -1 {
		domain = domain[:idx]
	}

	return domain
}

// getCurrentInstanceConfig returns the configuration for the currently
// targeted instance.
func getCurrentInstanceConfig(config *Config) (*InstanceConfig, string, error) {
	if config.CurrentInstance == "" {
		if len(config.Instances) == 0 {
			return nil, "", fmt.Errorf("%w, use 'ninja login' to add one", ErrNoInstancesConfigured)
		}
		// If no current instance is set but instances exist, use the first one
		for name := range config.Instances {
			config.CurrentInstance = name

			break
		}
	}

	instance, exists := config.Instances[config.CurrentInstance]
	if !exists {
		return nil, "", fmt.Errorf("%w in configuration: '%s'", ErrCurrentInstanceNotFound, config.CurrentInstance)
	}

	return instance, config.CurrentInstance, nil
}

// getInstanceByFlag returns instance config based on the --instance flag or
// the current instance.
func getInstanceByFlag(instanceFlag string) (*InstanceConfig, string, error) {
	config := loadConfig()

	if instanceFlag == "" {
		instanceFlag = viper.GetString("instance")
	}

	if instanceFlag != "" {
		// First try the flag as a short name
		if instance, exists := config.Instances[instanceFlag]; exists {
			return instance, instanceFlag, nil
		}

		// Otherwise look it up by endpoint
		for name, instance := range config.Instances {
			if instance.Endpoint == instanceFlag {
				return instance, name, nil
			}
		}

		return nil, "", fmt.Errorf("%w, use 'ninja instances list' to see available instances: '%s'", ErrInstanceNotFound, instanceFlag)
	}

	return getCurrentInstanceConfig(config)
}

// CreateClient creates a NinjaRMM client for the instance selected by the
// --instance flag (or the current instance), refreshing tokens through the
// config file as they renew.
func CreateClient(instanceFlag string) (ninja.Client, error) {
	instance, name, err := getInstanceByFlag(instanceFlag)
	if err != nil {
		return nil, err
	}

	if instance.Endpoint == "" {
		return nil, fmt.Errorf("%w, use 'ninja login' first", ErrInstanceEndpointRequired)
	}

	if instance.ClientID == "" || instance.ClientSecret == "" {
		return nil, ErrNotAuthenticated
	}

	tokenManager := auth.NewConfigTokenManager(
		buildOAuth2Config(instance),
		NewConfigPersister(),
		name,
		instance.Token,
		initialTokenExpiry(instance),
	)

	apiClient, err := client.NewWithTokenManager(buildClientConfig(instance), tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return apiClient, nil
}

func buildOAuth2Config(instance *InstanceConfig) *auth.OAuth2Config {
	return &auth.OAuth2Config{
		TokenURL:     strings.TrimSuffix(instance.Endpoint, "/") + constants.TokenPath,
		ClientID:     instance.ClientID,
		ClientSecret: instance.ClientSecret,
		RefreshToken: instance.RefreshToken,
		AccessToken:  instance.Token,
	}
}

func buildClientConfig(instance *InstanceConfig) *ninja.Config {
	return &ninja.Config{
		APIEndpoint:       instance.Endpoint,
		ConvertTimestamps: !viper.GetBool("raw_timestamps"),
	}
}

func initialTokenExpiry(instance *InstanceConfig) time.Time {
	if instance.TokenExpiresAt != nil {
		return *instance.TokenExpiresAt
	}

	return time.Time{}
}

// NewInstancesCommand creates the instances command group.
func NewInstancesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance"},
		Short:   "Manage configured NinjaRMM instances",
		Long:    "List, select, and remove configured NinjaRMM instances",
	}

	cmd.AddCommand(newInstancesListCommand())
	cmd.AddCommand(newInstancesUseCommand())
	cmd.AddCommand(newInstancesRemoveCommand())

	return cmd
}

func newInstancesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			output := viper.GetString("output")
			switch output {
			case OutputFormatJSON:
				return StandardJSONRenderer(maskedInstances(config))
			case OutputFormatYAML:
				return StandardYAMLRenderer(maskedInstances(config))
			default:
				return renderInstancesTable(config)
			}
		},
	}
}

// maskedInstances strips secrets before rendering configuration.
func maskedInstances(config *Config) map[string]*InstanceConfig {
	masked := make(map[string]*InstanceConfig, len(config.Instances))

	for name, instance := range config.Instances {
		clone := *instance
		if clone.ClientSecret != "" {
			clone.ClientSecret = constants.MaskedSecret
		}

		if clone.Token != "" {
			clone.Token = constants.MaskedSecret
		}

		if clone.RefreshToken != "" {
			clone.RefreshToken = constants.MaskedSecret
		}

		masked[name] = &clone
	}

	return masked
}

func renderInstancesTable(config *Config) error {
	if len(config.Instances) == 0 {
		_, _ = os.Stdout.WriteString("No instances configured. Use 'ninja login' to add one.\n")

		return nil
	}

	records := make([]ninja.Record, 0, len(config.Instances))

	for name, instance := range config.Instances {
		current := ""
		if name == config.CurrentInstance {
			current = "*"
		}

		lastRefreshed := NotAvailable
		if instance.LastRefreshed != nil {
			lastRefreshed = instance.LastRefreshed.Format(time.RFC3339)
		}

		records = append(records, ninja.Record{
			"current":        current,
			"name":           name,
			"endpoint":       instance.Endpoint,
			"client_id":      instance.ClientID,
			"last_refreshed": lastRefreshed,
		})
	}

	return renderRecordsTable(
		[]string{"", "Name", "Endpoint", "Client ID", "Last Refreshed"},
		[]string{"current", "name", "endpoint", "client_id", "last_refreshed"},
		records,
	)
}

func newInstancesUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Set the current instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			name := args[0]
			if _, exists := config.Instances[name]; !exists {
				return fmt.Errorf("%w: '%s'", ErrInstanceNotFound, name)
			}

			config.CurrentInstance = name

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Now using instance '%s'\n", name)

			return nil
		},
	}
}

func newInstancesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a configured instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			name := args[0]
			if _, exists := config.Instances[name]; !exists {
				return fmt.Errorf("%w: '%s'", ErrInstanceNotFound, name)
			}

			delete(config.Instances, name)

			if config.CurrentInstance == name {
				config.CurrentInstance = ""
			}

			if err := saveConfigStruct(config); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			fmt.Printf("Removed instance '%s'\n", name)

			return nil
		},
	}
}
