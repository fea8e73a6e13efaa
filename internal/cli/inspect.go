package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/starmap/pkg/turn"
)

// inspectCommand creates the inspect command, an interactive browser over
// the cells and territories of every turn.
func (c *CLI) inspectCommand() *cobra.Command {
	ro := &renderOpts{turn: -1}

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse cells and territories interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.pipelineOptions(cmd, args[0], ro)
			if err != nil {
				return err
			}
			// Log lines would tear the alternate screen.
			opts.Logger = log.NewWithOptions(io.Discard, log.Options{})

			turns, start := 1, 0
			if len(opts.Sites) == 0 {
				l, err := turn.Parse(opts.Log)
				if err != nil {
					return err
				}
				turns = l.Len()
				start = opts.Turn
				if start < 0 {
					start += turns
				}
				if _, err := l.Turn(start); err != nil {
					return err
				}
			}

			runner, err := c.newRunner(ctx, ro.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			runner.Logger = opts.Logger

			load := func(t int) (*Frame, error) {
				o := opts
				o.Turn = t
				in, d, err := c.loadDiagram(ctx, runner, o)
				if err != nil {
					return nil, err
				}
				layers, err := runner.Merge(ctx, d, o)
				if err != nil {
					return nil, err
				}
				return &Frame{Input: in, Diagram: d, Layers: layers}, nil
			}

			p := tea.NewProgram(NewInspectModel(load, turns, start), tea.WithAltScreen(), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	ro.register(cmd)
	return cmd
}
