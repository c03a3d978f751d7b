package commands

import (
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/eodhd/pkg/eodhd"
)

// EndpointInfo summarizes one registered endpoint.
type EndpointInfo struct {
	Name         string      `json:"name"                     yaml:"name"`
	Path         string      `json:"path"                     yaml:"path"`
	Shape        string      `json:"shape"                    yaml:"shape"`
	Description  string      `json:"description"              yaml:"description"`
	MaxPageLimit int         `json:"max_page_limit,omitempty" yaml:"max_page_limit,omitempty"`
	Params       []ParamInfo `json:"params"                   yaml:"params"`
}

// ParamInfo summarizes one endpoint parameter.
type ParamInfo struct {
	Name     string   `json:"name"           yaml:"name"`
	Kind     string   `json:"kind"           yaml:"kind"`
	Required bool     `json:"required"       yaml:"required"`
	InPath   bool     `json:"in_path"        yaml:"in_path"`
	Enum     []string `json:"enum,omitempty" yaml:"enum,omitempty"`
}

var paramKindNames = map[eodhd.ParamKind]string{
	eodhd.KindString: "string",
	eodhd.KindList:   "list",
	eodhd.KindInt:    "int",
	eodhd.KindFloat:  "float",
	eodhd.KindDate:   "date",
	eodhd.KindEnum:   "enum",
}

// describeEndpoints converts registry entries for display.
func describeEndpoints(endpoints []*eodhd.Endpoint) []EndpointInfo {
	infos := make([]EndpointInfo, 0, len(endpoints))

	for _, endpoint := range endpoints {
		info := EndpointInfo{
			Name:         endpoint.Name,
			Path:         endpoint.Path,
			Shape:        endpoint.Shape.String(),
			Description:  endpoint.Description,
			MaxPageLimit: endpoint.MaxPageLimit,
			Params:       make([]ParamInfo, 0, len(endpoint.Params)),
		}

		for _, spec := range endpoint.Params {
			info.Params = append(info.Params, ParamInfo{
				Name:     spec.Name,
				Kind:     paramKindNames[spec.Kind],
				Required: spec.Required,
				InPath:   spec.InPath,
				Enum:     spec.Enum,
			})
		}

		infos = append(infos, info)
	}

	return infos
}

func paramSummary(params []ParamInfo) string {
	names := make([]string, 0, len(params))

	for _, param := range params {
		name := param.Name
		if param.Required {
			name += "*"
		}

		names = append(names, name)
	}

	return strings.Join(names, ", ")
}

// NewEndpointsCommand creates the endpoints command
func NewEndpointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "endpoints",
		Aliases: []string{"ep"},
		Short:   "List available endpoints",
		Long:    "List every endpoint the client knows, with its path, response shape and parameters (* marks required)",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := describeEndpoints(eodhd.DefaultRegistry().List())

			return renderOutput(cmd.OutOrStdout(), infos, func(table *tablewriter.Table) error {
				table.Header("Name", "Path", "Shape", "Max Page", "Params")

				for _, info := range infos {
					maxPage := NotAvailable
					if info.MaxPageLimit > 0 {
						maxPage = strconv.Itoa(info.MaxPageLimit)
					}

					_ = table.Append(info.Name, info.Path, info.Shape, maxPage, paramSummary(info.Params))
				}

				return nil
			})
		},
	}
}
