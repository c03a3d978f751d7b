package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/eodhd/internal/constants"
	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// parseParams turns repeated key=value flags into call arguments. Values are
// passed through as scalars; list parameters accept comma-joined values.
func parseParams(pairs []string) (*eodhd.Args, error) {
	args := eodhd.NewArgs()

	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", constants.KeyValueSplitParts)
		if len(parts) != constants.KeyValueSplitParts || parts[0] == "" {
			return nil, fmt.Errorf("%w: %s", constants.ErrInvalidParamFormat, pair)
		}

		args.Set(parts[0], eodhd.Scalar(parts[1]))
	}

	return args, nil
}

// resultRows flattens a decoded result into table rows. Objects become one
// row each; columns are the union of keys in first-seen order.
func resultRows(result *eodhd.Result) ([]string, [][]string) {
	var items []json.RawMessage

	if result.Shape == eodhd.ShapeEnvelope {
		items = result.Envelope.Data
	} else {
		var list []json.RawMessage
		if err := json.Unmarshal(result.Bare, &list); err != nil {
			items = []json.RawMessage{result.Bare}
		} else {
			items = list
		}
	}

	var (
		columns []string
		seen    = make(map[string]bool)
		objects = make([]map[string]json.RawMessage, 0, len(items))
	)

	for _, item := range items {
		var object map[string]json.RawMessage
		if err := json.Unmarshal(item, &object); err != nil {
			object = map[string]json.RawMessage{"value": item}
		}

		keys := make([]string, 0, len(object))
		for key := range object {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}

		objects = append(objects, object)
	}

	rows := make([][]string, 0, len(objects))

	for _, object := range objects {
		row := make([]string, len(columns))

		for i, column := range columns {
			row[i] = cellText(object[column])
		}

		rows = append(rows, row)
	}

	return columns, rows
}

func cellText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return NotAvailable
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return truncate(text, maxCellWidth)
	}

	return truncate(string(raw), maxCellWidth)
}

// resultData is the json/yaml view of a decoded result.
func resultData(result *eodhd.Result) any {
	if result.Shape == eodhd.ShapeEnvelope {
		return result.Envelope
	}

	return result.Bare
}

// NewCallCommand creates the generic call command
func NewCallCommand() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "call ENDPOINT",
		Short: "Call any endpoint by name",
		Long: `Call any registered endpoint with key=value parameters.

Parameters are validated against the endpoint before anything is sent.
List parameters accept comma-joined values, e.g. --param s=AAPL.US,TSLA.US`,
		Example: `  eodhd call us-extended-quotes --param s=AAPL.US,TSLA.US --param 'page[limit]=50'
  eodhd call eod --param symbol=MCD.US --param from=2024-01-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs, err := parseParams(params)
			if err != nil {
				return err
			}

			client, credential, err := newClient(cmd)
			if err != nil {
				return err
			}

			result, err := client.Call(cmd.Context(), credential, args[0], callArgs)
			if err != nil {
				return fmt.Errorf("failed to call %s: %w", args[0], err)
			}

			return renderOutput(cmd.OutOrStdout(), resultData(result), func(table *tablewriter.Table) error {
				columns, rows := resultRows(result)

				if len(columns) > 0 {
					header := make([]any, len(columns))
					for i, column := range columns {
						header[i] = column
					}

					table.Header(header...)
				}

				for _, row := range rows {
					_ = table.Append(row)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "endpoint parameter as key=value (repeatable)")

	return cmd
}
