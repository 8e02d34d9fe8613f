package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/TomaszSorobka/CSRP-graphs/pkg/driver"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/instance"
	"github.com/TomaszSorobka/CSRP-graphs/pkg/solver"
)

// report is the JSON handed to the positioning step.
type report struct {
	RunID           string             `json:"run_id"`
	InstanceID      string             `json:"instance_id"`
	Entities        int                `json:"entities"`
	Statements      int                `json:"statements"`
	Solutions       []*solver.Solution `json:"solutions"`
	DeletedEntities []int              `json:"deleted_entities"`
	Unsolvable      []unsolvedPiece    `json:"unsolvable,omitempty"`
	Iterations      int                `json:"iterations"`
	Splits          int                `json:"splits"`
}

type unsolvedPiece struct {
	ID           string `json:"id"`
	EntityIDs    []int  `json:"entity_ids"`
	StatementIDs []int  `json:"statement_ids"`
}

func newReport(runID string, root *instance.Instance, res *driver.Result) *report {
	rep := &report{
		RunID:           runID,
		InstanceID:      root.ID,
		Entities:        root.NumberOfEntities(),
		Statements:      root.NumberOfStatements(),
		Solutions:       res.Solutions,
		DeletedEntities: res.DeletedEntities,
		Iterations:      res.Iterations,
		Splits:          res.Splits,
	}
	if rep.Solutions == nil {
		rep.Solutions = []*solver.Solution{}
	}
	if rep.DeletedEntities == nil {
		rep.DeletedEntities = []int{}
	}
	for _, u := range res.Unsolvable {
		rep.Unsolvable = append(rep.Unsolvable, unsolvedPiece{
			ID:           u.ID,
			EntityIDs:    u.Entities,
			StatementIDs: u.Statements,
		})
	}
	return rep
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1)

	warnBoxStyle = boxStyle.
			BorderForeground(lipgloss.Color("#FF0000"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(12)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

func renderSummary(rep *report, elapsed time.Duration) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}

	lines := []string{
		titleStyle.Render("Decomposition " + rep.RunID),
		row("instance", rep.InstanceID),
		row("input", fmt.Sprintf("%d entities, %d statements", rep.Entities, rep.Statements)),
		row("solved", fmt.Sprintf("%d pieces", len(rep.Solutions))),
		row("splits", fmt.Sprintf("%d in %d iterations", rep.Splits, rep.Iterations)),
		row("deleted", formatIDs(rep.DeletedEntities)),
		row("elapsed", elapsed.Round(time.Millisecond).String()),
	}

	style := boxStyle
	if len(rep.Unsolvable) > 0 {
		style = warnBoxStyle
		ids := make([]string, len(rep.Unsolvable))
		for i, u := range rep.Unsolvable {
			ids[i] = u.ID
		}
		lines = append(lines, row("unsolvable", errorStyle.Render(strings.Join(ids, ", "))))
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func formatIDs(ids []int) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
