// Package searchcmder provides the search command for semantic search over
// debate cards.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/cards/pkg/card"
	"github.com/papercomputeco/cards/pkg/cliui"
	"github.com/papercomputeco/cards/pkg/client"
	"github.com/papercomputeco/cards/pkg/config"
	"github.com/papercomputeco/cards/pkg/utils"
)

var (
	rankStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	topicStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const previewLen = 77

type searchCommander struct {
	query     string
	page      int
	asJSON    bool
	apiTarget string
	token     string
}

const searchLongDesc string = `Search debate cards via the cards API.

Returns one page of up to 25 cards ranked by semantic similarity to the query,
with their side, topic and vote tally. Requires a running cards API server.

Use --json to print the raw results, e.g. for piping into jq.

Examples:
  cards search "carbon taxes reduce emissions"
  cards search "nuclear power" --page 2
  cards search "tariffs" --api-target http://localhost:8080 --json`

const searchShortDesc string = "Search debate cards"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPITarget})
			cfg := config.Resolve(v)
			cmder.apiTarget = cfg.Client.APITarget
			cmder.token = cfg.Client.Token
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]
			if cmder.page < 1 {
				return fmt.Errorf("page must be 1 or greater, got %d", cmder.page)
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	var apiTarget string
	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	cmd.Flags().IntVarP(&cmder.page, "page", "p", 1, "Result page to fetch")
	cmd.Flags().BoolVar(&cmder.asJSON, "json", false, "Print results as JSON")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, w io.Writer) error {
	cl, err := client.New(c.apiTarget, c.token)
	if err != nil {
		return err
	}

	results, err := cl.Search(ctx, c.query, c.page)
	if err != nil {
		return err
	}

	if c.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "\n%s %s %s\n\n",
		cliui.HeaderStyle.Render("Search Results for:"),
		idStyle.Render(fmt.Sprintf("%q", c.query)),
		cliui.DimStyle.Render(fmt.Sprintf("(page %d)", c.page)),
	)

	offset := (c.page - 1) * 25
	for i, result := range results {
		PrintCard(w, offset+i+1, result)
	}
	return nil
}

// PrintCard renders a single search hit.
func PrintCard(w io.Writer, rank int, result card.ScoredCard) {
	fmt.Fprintf(w, "  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		idStyle.Render(result.ID),
	)

	content := strings.ReplaceAll(result.Content, "\n", " ")
	fmt.Fprintf(w, "  %s %s\n",
		cliui.SideStyle(result.Side).Render("["+result.Side+"]"),
		cliui.ValueStyle.Render(utils.Truncate(content, previewLen)),
	)

	meta := fmt.Sprintf("topic: %s  votes: %+d (%d up, %d down)",
		result.Topic, result.Votes, result.Upvotes, result.Downvotes)
	fmt.Fprintf(w, "  %s\n", topicStyle.Render(meta))

	if result.Link != nil && *result.Link != "" {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(*result.Link))
	}
	fmt.Fprintln(w)
}
