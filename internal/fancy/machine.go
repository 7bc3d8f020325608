package fancy

import (
	"fmt"

	"github.com/atlanticdynamic/coffeemaker/internal/statemachine"
	"github.com/charmbracelet/lipgloss/tree"
)

// MachineTree renders a state machine table. Every state is a branch listing
// the events it reacts to and their target; states without transitions are
// marked as final.
func MachineTree(table statemachine.Table) *tree.Tree {
	t := Tree()
	t.Root(RootStyle.Render(table.Name) + " " +
		InfoStyle.Render(fmt.Sprintf("(%d states, %d events)", len(table.States), len(table.Events))))

	byState := make(map[string][]statemachine.TransitionInfo, len(table.States))
	for _, tr := range table.Transitions {
		byState[tr.From] = append(byState[tr.From], tr)
	}

	for _, state := range table.States {
		label := StateText(state)
		if state == table.Initial {
			label = InitialStateStyle.Render(state) + " " + InfoStyle.Render("(initial)")
		}
		branch := tree.New().Root(label)
		transitions := byState[state]
		if len(transitions) == 0 {
			branch.Child(InfoStyle.Render("no transitions"))
		}
		for _, tr := range transitions {
			branch.Child(EventText(tr.Event) + " → " + TargetText(tr.To))
		}
		t.Child(branch)
	}
	return t
}

// MachinesTree renders several tables under one root.
func MachinesTree(title string, describers ...statemachine.Describer) *tree.Tree {
	t := Tree()
	t.Root(HeaderStyle.Render(title))
	for _, d := range describers {
		t.Child(MachineTree(d.Describe()))
	}
	return t
}
