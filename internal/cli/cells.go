package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/starmap/pkg/pipeline"
	"github.com/matzehuels/starmap/pkg/voronoi"
)

// Sort orders for the cells table.
const (
	sortName  = "name"
	sortArea  = "area"
	sortOwner = "owner"
)

// cellsCommand creates the cells command, which lists the Voronoi cells of a
// turn with their owner, area and neighbours.
func (c *CLI) cellsCommand() *cobra.Command {
	ro := &renderOpts{turn: -1}
	var owner, sortBy string

	cmd := &cobra.Command{
		Use:   "cells [file]",
		Short: "List the cells of a match turn",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sortBy != sortName && sortBy != sortArea && sortBy != sortOwner {
				return fmt.Errorf("invalid sort: %s (must be 'name', 'area' or 'owner')", sortBy)
			}
			opts, err := c.pipelineOptions(cmd, args[0], ro)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), ro.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			in, d, err := c.loadDiagram(cmd.Context(), runner, opts)
			if err != nil {
				return err
			}
			writeCells(cmd.OutOrStdout(), in, d, owner, sortBy)
			return nil
		},
	}

	ro.register(cmd)
	cmd.Flags().StringVar(&owner, "owner", "", "only list cells of this player")
	cmd.Flags().StringVar(&sortBy, "sort", sortName, "sort by: name, area, owner")
	_ = cmd.RegisterFlagCompletionFunc("sort", completeValues(sortName, sortArea, sortOwner))

	return cmd
}

// writeCells prints the cell table followed by a per-owner area summary.
func writeCells(w io.Writer, in *pipeline.Input, d *voronoi.Diagram, owner, sortBy string) {
	cells := make([]*voronoi.Cell, 0, len(d.Cells))
	for _, cell := range d.Cells {
		if owner == "" || cell.Owner == owner {
			cells = append(cells, cell)
		}
	}
	slices.SortStableFunc(cells, func(a, b *voronoi.Cell) int {
		switch sortBy {
		case sortArea:
			return cmp.Compare(b.Area(), a.Area())
		case sortOwner:
			if c := cmp.Compare(a.Owner, b.Owner); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Name, b.Name)
	})

	fmt.Fprintln(w, cellTable(in, cells).Render())

	total := d.Area()
	areas := d.OwnerArea()
	for _, o := range d.Owners() {
		if owner != "" && o != owner {
			continue
		}
		share := 0.0
		if total > 0 {
			share = 100 * areas[o] / total
		}
		fmt.Fprintf(w, "%s %s\n", ownerStyle(in, o).Render(ownerLabel(o)), StyleDim.Render(fmt.Sprintf("%.1f%%", share)))
	}
	if gap := d.Uncovered(); gap > uncoveredNotice*d.Box.Area() {
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%.1f%% of the map lies between weighted cells", 100*gap/d.Box.Area())))
	}
	if len(d.Dropped) > 0 {
		fmt.Fprintln(w, StyleWarning.Render(fmt.Sprintf("%d coincident sites dropped", len(d.Dropped))))
	}
}

// uncoveredNotice is the share of the box left between cells above which
// writeCells mentions it.
const uncoveredNotice = 1e-4

// cellTable renders one row per cell.
func cellTable(in *pipeline.Input, cells []*voronoi.Cell) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := make([][]string, len(cells))
	for i, cell := range cells {
		ships := "—"
		if in.State != nil {
			if p, ok := in.State.Planet(cell.Name); ok {
				ships = strconv.Itoa(p.ShipCount)
			}
		}
		rows[i] = []string{
			cell.Name,
			ownerLabel(cell.Owner),
			ships,
			fmt.Sprintf("%.2f, %.2f", cell.Site.X, cell.Site.Y),
			fmt.Sprintf("%.2f", cell.Area()),
			strconv.Itoa(cell.EdgeCount()),
			strconv.Itoa(len(cell.Neighbors)),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Cell", "Owner", "Ships", "Site", "Area", "Edges", "Neighbours").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 1 && row < len(cells) {
				return ownerStyle(in, cells[row].Owner).Padding(0, 1)
			}
			if col >= 2 {
				return base.Foreground(colorWhite)
			}
			return base
		})
}

// ownerStyle colours an owner the way the map draws it. Neutral cells use
// the dim colour since the map's black would vanish on dark terminals.
func ownerStyle(in *pipeline.Input, owner string) lipgloss.Style {
	if owner == "" {
		return lipgloss.NewStyle().Foreground(colorDim)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(in.Colors.Get(owner)))
}

func ownerLabel(owner string) string {
	if owner == "" {
		return "neutral"
	}
	return owner
}
