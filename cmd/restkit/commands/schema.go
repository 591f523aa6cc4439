package commands

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/restkit/internal/constants"
	"github.com/fivetwenty-io/restkit/pkg/rest"
)

// NewSchemaCommand creates the schema command group.
func NewSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect path schemas",
		Long:  "Validate schema files and list the routes they declare",
	}

	cmd.AddCommand(newSchemaValidateCommand())
	cmd.AddCommand(newSchemaRoutesCommand())

	return cmd
}

func newSchemaValidateCommand() *cobra.Command {
	var verb string

	cmd := &cobra.Command{
		Use:   "validate FILE [PATH]",
		Short: "Validate a schema file",
		Long: `Parse a schema file. With PATH, also check that --verb is declared on it
the same way the client checks every call.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := rest.LoadSchemaFile(args[0])
			if err != nil {
				return err
			}

			if len(args) == 1 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d routes\n", args[0], len(schema.Routes()))

				return nil
			}

			parsed, err := rest.ParseVerb(verb)
			if err != nil {
				return err
			}

			err = schema.Validate(parsed, args[1])
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s: ok\n", parsed, args[1])

			return nil
		},
	}

	cmd.Flags().StringVar(&verb, "verb", string(rest.VerbGet), "verb to check (get, create, update, delete)")

	return cmd
}

func newSchemaRoutesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "routes FILE",
		Short: "List the routes a schema declares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := rest.LoadSchemaFile(args[0])
			if err != nil {
				return err
			}

			routes := schema.Routes()

			format, err := OutputFormat()
			if err != nil {
				return err
			}

			if format != constants.FormatTable {
				type routeInfo struct {
					Path       string   `json:"path"                  yaml:"path"`
					Verb       string   `json:"verb"                  yaml:"verb"`
					PathParams []string `json:"path_params,omitempty" yaml:"path_params,omitempty"`
					Input      string   `json:"input,omitempty"       yaml:"input,omitempty"`
					Output     string   `json:"output,omitempty"      yaml:"output,omitempty"`
				}

				infos := make([]routeInfo, len(routes))
				for i, route := range routes {
					infos[i] = routeInfo{
						Path:       route.Path,
						Verb:       string(route.Verb),
						PathParams: route.Endpoint.PathParams,
						Input:      route.Endpoint.Input,
						Output:     route.Endpoint.Output,
					}
				}

				return RenderValue(cmd.OutOrStdout(), format, infos)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Verb", "Method", "Path", "Path Params", "Output")

			for _, route := range routes {
				_ = table.Append(
					string(route.Verb),
					route.Verb.Method(),
					route.Path,
					strings.Join(route.Endpoint.PathParams, ", "),
					route.Endpoint.Output,
				)
			}

			err = table.Render()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}
