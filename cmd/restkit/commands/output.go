package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/restkit/internal/constants"
)

// OutputFormat returns the configured output format. Without one, tables are
// printed to terminals and JSON everywhere else.
func OutputFormat() (string, error) {
	format := strings.ToLower(viper.GetString("output"))

	switch format {
	case constants.FormatJSON, constants.FormatYAML, constants.FormatTable:
		return format, nil
	case "":
		if term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // file descriptors fit in int
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutputFormat, format)
	}
}

// RenderOutput writes a response body in format. A nil body prints nothing.
func RenderOutput(w io.Writer, format string, data json.RawMessage) error {
	if data == nil {
		return nil
	}

	var value any

	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.UseNumber()

	err := decoder.Decode(&value)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return RenderValue(w, format, value)
}

// RenderValue writes value in format.
func RenderValue(w io.Writer, format string, value any) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(constants.JSONIndentSize)

		err := encoder.Encode(yamlValue(value))
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}

		return encoder.Close()
	default:
		return renderTable(w, value)
	}
}

// yamlValue converts json.Number leaves so yaml.v3 emits numbers rather
// than quoted strings.
func yamlValue(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if i, err := typed.Int64(); err == nil {
			return i
		}

		if f, err := typed.Float64(); err == nil {
			return f
		}

		return typed.String()
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = yamlValue(item)
		}

		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = yamlValue(item)
		}

		return out
	default:
		return value
	}
}

func renderTable(w io.Writer, value any) error {
	table := tablewriter.NewWriter(w)

	switch typed := value.(type) {
	case map[string]any:
		table.Header("Property", "Value")

		for _, key := range sortedKeys(typed) {
			_ = table.Append(key, cell(typed[key]))
		}
	case []any:
		columns := collectColumns(typed)
		if columns == nil {
			table.Header("Value")

			for _, item := range typed {
				_ = table.Append(cell(item))
			}

			break
		}

		headers := make([]any, len(columns))
		for i, column := range columns {
			headers[i] = cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
		}

		table.Header(headers...)

		for _, item := range typed {
			object, _ := item.(map[string]any)

			row := make([]any, len(columns))
			for i, column := range columns {
				row[i] = cell(object[column])
			}

			_ = table.Append(row...)
		}
	default:
		table.Header("Value")
		_ = table.Append(cell(value))
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// collectColumns returns the sorted union of keys when every item is an
// object, or nil otherwise.
func collectColumns(items []any) []string {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]struct{})

	for _, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			return nil
		}

		for key := range object {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}

	sort.Strings(columns)

	return columns
}

func sortedKeys(object map[string]any) []string {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func cell(value any) string {
	var text string

	switch typed := value.(type) {
	case nil:
		return constants.NotAvailable
	case string:
		text = typed
	case json.Number:
		text = typed.String()
	case bool:
		text = fmt.Sprint(typed)
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			text = fmt.Sprint(typed)
		} else {
			text = string(data)
		}
	}

	if len(text) > constants.StringTruncationLength {
		text = text[:constants.StringTruncationLength-3] + "..."
	}

	return text
}
