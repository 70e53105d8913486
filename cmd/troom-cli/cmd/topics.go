package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nfrund/troom/internal/topicmgr"

	// Registers the topics their packages publish.
	_ "github.com/nfrund/troom/internal/room"
	_ "github.com/nfrund/troom/internal/websocket"
)

// topicDisplay is the JSON form of a topic.
type topicDisplay struct {
	Name        string         `json:"name"`
	Scope       string         `json:"scope"`
	Module      string         `json:"module"`
	Description string         `json:"description"`
	Example     string         `json:"example,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func newTopicsCmd() *cobra.Command {
	topicsCmd := &cobra.Command{
		Use:   "topics",
		Short: "Explore event bus topics",
		Long: `The topics command lists the topics troom publishes on its in-process bus.
Framework topics (ws.*, presence.*) come from the transport and room core;
module topics (chat.*) describe chat traffic.

Examples:
  troom-cli topics list
  troom-cli topics list --module chat
  troom-cli topics list --scope framework --format json`,
	}
	topicsCmd.AddCommand(newTopicsListCmd())
	return topicsCmd
}

func newTopicsListCmd() *cobra.Command {
	var format, module, scope string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			topics, err := filterTopics(topicmgr.Default(), module, scope)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return writeTopicsJSON(out, topics)
			case "table":
				if len(topics) == 0 {
					fmt.Fprintln(out, "No topics found")
					return nil
				}
				return writeTopicsTable(out, topics)
			default:
				return fmt.Errorf("unsupported output format %q, use table or json", format)
			}
		},
	}

	listCmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	listCmd.Flags().StringVarP(&module, "module", "m", "", "Filter topics by module name")
	listCmd.Flags().StringVarP(&scope, "scope", "s", "", "Filter topics by scope (framework, module)")
	return listCmd
}

func filterTopics(manager *topicmgr.Manager, module, scope string) ([]topicmgr.Topic, error) {
	var topics []topicmgr.Topic
	if module != "" {
		topics = manager.ListByModule(module)
	} else {
		topics = manager.List()
	}
	if scope == "" {
		return topics, nil
	}

	want := topicmgr.TopicScope(strings.ToLower(scope))
	if want != topicmgr.ScopeFramework && want != topicmgr.ScopeModule {
		return nil, fmt.Errorf("invalid scope %q, valid scopes: framework, module", scope)
	}
	var filtered []topicmgr.Topic
	for _, t := range topics {
		if t.Scope() == want {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func writeTopicsTable(w io.Writer, topics []topicmgr.Topic) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSCOPE\tMODULE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----\t------\t-----------")
	for _, t := range topics {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name(), t.Scope(), t.Module(), t.Description())
	}
	return tw.Flush()
}

func writeTopicsJSON(w io.Writer, topics []topicmgr.Topic) error {
	display := make([]topicDisplay, 0, len(topics))
	for _, t := range topics {
		display = append(display, topicDisplay{
			Name:        t.Name(),
			Scope:       string(t.Scope()),
			Module:      t.Module(),
			Description: t.Description(),
			Example:     t.Example(),
			Metadata:    t.Metadata(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"topics": display, "count": len(display)})
}
