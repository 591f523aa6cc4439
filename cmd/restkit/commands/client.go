package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/rest"
	"github.com/fivetwenty-io/restkit/pkg/restclient"
)

// LoadConfig builds the client configuration from viper and the command's
// --header flags. Flag headers override configured ones.
func LoadConfig(cmd *cobra.Command) (*rest.ClientConfig, error) {
	baseURL := viper.GetString("base_url")
	if baseURL == "" {
		return nil, constants.ErrNoBaseURLConfigured
	}

	headers := viper.GetStringMapString("headers")

	var flagHeaders []string
	if flag := cmd.Flags().Lookup("header"); flag != nil {
		flagHeaders, _ = cmd.Flags().GetStringArray("header")
	}

	parsed, err := ParseHeaders(flagHeaders)
	if err != nil {
		return nil, err
	}

	for key, value := range parsed {
		headers[key] = value
	}

	verbose := viper.GetBool("verbose")

	config := &rest.ClientConfig{
		BaseURL:     baseURL,
		Headers:     headers,
		UserAgent:   viper.GetString("user_agent"),
		HTTPTimeout: viper.GetDuration("timeout"),
		Debug:       verbose,
		Logger:      NewLogger(os.Stderr, verbose),
		RequestID:   viper.GetBool("request_id"),
		StaleTime:   viper.GetDuration("stale_time"),
	}

	schemaFile := viper.GetString("schema")
	if schemaFile != "" {
		config.Schema, err = rest.LoadSchemaFile(schemaFile)
		if err != nil {
			return nil, err
		}
	}

	if viper.IsSet("cache") {
		var cacheConfig rest.CacheConfig

		err = viper.UnmarshalKey("cache", &cacheConfig)
		if err != nil {
			return nil, fmt.Errorf("invalid cache configuration: %w", err)
		}

		config.Cache = &cacheConfig
	}

	return config, nil
}

// CreateClient creates a client from the CLI configuration.
func CreateClient(ctx context.Context, cmd *cobra.Command) (*restclient.Client, error) {
	config, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return restclient.New(ctx, config)
}
