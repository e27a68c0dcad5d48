package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the MCP server exposes",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

var callCmd = &cobra.Command{
	Use:   "call <tool> [key=value...]",
	Short: "Call a tool from the terminal",
	Long: `Calls a tool exactly as an MCP client would. Values that parse as JSON
(numbers, booleans, objects) are passed typed; anything else is a string.

Examples:
  skyplay call get_weather city=Lisbon
  skyplay call set_volume volume=40
  skyplay call reproduce_library device_id=abc shuffle=true`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCall,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(callCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	list := registry.List()
	if JSONOutput() {
		type toolInfo struct {
			Name        string         `json:"name"`
			Description string         `json:"description"`
			InputSchema map[string]any `json:"inputSchema"`
		}
		out := make([]toolInfo, len(list))
		for i, t := range list {
			out[i] = toolInfo{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
		}
		return printJSON(out)
	}

	table := NewTable("TOOL", "ARGUMENTS", "DESCRIPTION")
	for _, t := range list {
		table.Row(t.Name, schemaArgs(t.InputSchema), TruncateString(t.Description, 70))
	}
	table.Flush()
	return nil
}

// schemaArgs summarizes an object schema's properties, marking optional
// ones with a trailing "?".
func schemaArgs(schema map[string]any) string {
	props, _ := schema["properties"].(map[string]any)
	if len(props) == 0 {
		return "-"
	}

	required := map[string]bool{}
	switch r := schema["required"].(type) {
	case []string:
		for _, name := range r {
			required[name] = true
		}
	case []any:
		for _, name := range r {
			if s, ok := name.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if !required[name] {
			names[i] = name + "?"
		}
	}
	return strings.Join(names, " ")
}

func runCall(cmd *cobra.Command, args []string) error {
	toolArgs, err := parseCallArgs(args[1:])
	if err != nil {
		return err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	result, err := registry.Call(cmd.Context(), args[0], toolArgs)
	if errors.Is(err, tools.ErrUnknownTool) {
		return apperr.WithSuggestion(err, "Run 'skyplay tools' to list the available tools")
	}
	if err != nil {
		return err
	}

	if JSONOutput() {
		if err := printJSON(map[string]any{
			"text":       result.Text,
			"structured": result.Structured,
			"isError":    result.IsError,
		}); err != nil {
			return err
		}
	} else if result.IsError {
		fmt.Println(errorStyle.Render(result.Text))
	} else {
		fmt.Println(result.Text)
	}

	if result.IsError {
		return errToolFailed
	}
	return nil
}

var errToolFailed = errors.New("tool reported an error")

// parseCallArgs turns key=value pairs into tool arguments.
func parseCallArgs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", pair)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("duplicate argument %q", key)
		}

		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil || v == nil {
			v = raw
		}
		out[key] = v
	}
	return out, nil
}
