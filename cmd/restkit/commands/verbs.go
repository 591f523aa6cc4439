package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restkit/pkg/rest"
)

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		params []string
		query  []string
	)

	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Fetch a resource",
		Long: `Fetch a resource. Placeholders in PATH (":id", ":user.id") are filled
from --param; --query values become the query string.`,
		Example: `  restkit get /users/:id --param id=7
  restkit get /users --query page=2 --query filter.role=admin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathParams, err := ParseKeyValues(params)
			if err != nil {
				return err
			}

			var payload any

			if len(query) > 0 {
				values, err := ParseKeyValues(query)
				if err != nil {
					return err
				}

				payload = values
			}

			cfg, err := BuildConfig(rest.VerbGet, pathParams, payload)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			data, err := client.Get(args[0], cfg).Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get %s: %w", args[0], err)
			}

			return printResult(cmd, data)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "path parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value (repeatable)")

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	return newMutationCommand(rest.VerbCreate, "Create a resource", "restkit create /users --body '{\"name\":\"ada\"}'")
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	return newMutationCommand(rest.VerbUpdate, "Update a resource", "restkit update /users/:id --param id=7 --body @user.json")
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return newMutationCommand(rest.VerbDelete, "Delete a resource", "restkit delete /users/:id --param id=7")
}

func newMutationCommand(verb rest.Verb, short, example string) *cobra.Command {
	var (
		params []string
		body   string
	)

	cmd := &cobra.Command{
		Use:     string(verb) + " PATH",
		Short:   short,
		Example: "  " + example,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pathParams, err := ParseKeyValues(params)
			if err != nil {
				return err
			}

			payload, err := ParseBody(body)
			if err != nil {
				return err
			}

			cfg, err := BuildConfig(verb, pathParams, payload)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			defer func() { _ = client.Close() }()

			var mutation *rest.Mutation

			switch verb {
			case rest.VerbCreate:
				mutation = client.Create(args[0], rest.MutationOptions{})
			case rest.VerbUpdate:
				mutation = client.Update(args[0], rest.MutationOptions{})
			default:
				mutation = client.Delete(args[0], rest.MutationOptions{})
			}

			data, err := mutation.Execute(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to %s %s: %w", verb, args[0], err)
			}

			return printResult(cmd, data)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "path parameter as key=value (repeatable)")

	if verb != rest.VerbDelete {
		cmd.Flags().StringVarP(&body, "body", "b", "", "JSON body, or @file to read it from a file")
	}

	return cmd
}

func printResult(cmd *cobra.Command, data json.RawMessage) error {
	format, err := OutputFormat()
	if err != nil {
		return err
	}

	return RenderOutput(cmd.OutOrStdout(), format, data)
}
