package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemalab/circuitlay/pkg/layout"
)

// Summary renders a plain-text report of a convergence result.
func Summary(res *layout.Result, circuitName string) string {
	s := Compute(res)
	l := res.Layout

	var sb strings.Builder
	sb.WriteString("Circuit Layout Summary\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if circuitName != "" {
		fmt.Fprintf(&sb, "Circuit:    %s\n", circuitName)
	}
	fmt.Fprintf(&sb, "Chip:       %s (%d pins)\n", l.Chip.Name, l.Chip.PinCount)
	fmt.Fprintf(&sb, "Components: %d\n", s.TotalComponents)
	fmt.Fprintf(&sb, "Status:     %s after %d attempts\n", s.Status, s.Attempts)
	if s.Unresolved > 0 {
		fmt.Fprintf(&sb, "Unresolved: %d\n", s.Unresolved)
	}
	sb.WriteString("\n")

	sb.WriteString("Layout statistics:\n")
	fmt.Fprintf(&sb, "  Area:         %.1f x %.1f\n", s.LayoutArea.Width, s.LayoutArea.Height)
	fmt.Fprintf(&sb, "  Density:      %.1f%%\n", s.DensityPercent)
	fmt.Fprintf(&sb, "  Optimal rate: %.1f%%\n", s.OptimalPercent)
	fmt.Fprintf(&sb, "  Displacement: mean %.2f, max %.2f\n\n", s.Displacement.Mean, s.Displacement.Max)

	d := s.Distribution
	sb.WriteString("Component distribution:\n")
	fmt.Fprintf(&sb, "  By side:     left %d, right %d, top %d, bottom %d\n",
		d.BySide["left"], d.BySide["right"], d.BySide["top"], d.BySide["bottom"])
	fmt.Fprintf(&sb, "  By distance: near %d, medium %d, far %d\n",
		d.ByDistance["near"], d.ByDistance["medium"], d.ByDistance["far"])
	fmt.Fprintf(&sb, "  By type:     %s\n\n", formatTypeCounts(d.ByType))

	sb.WriteString("Component positions:\n")
	for _, it := range l.Items {
		fmt.Fprintf(&sb, "  %s (%s): (%.2f, %.2f) size %.1fx%.1f",
			it.Comp.ID, it.Comp.Type, it.Pos.X, it.Pos.Y, it.BBox.Width(), it.BBox.Height())
		if d := it.Displacement(); d >= OptimalThreshold {
			fmt.Fprintf(&sb, " [moved %.2f from target]", d)
		}
		if !it.Resolved {
			sb.WriteString(" [unresolved]")
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

func formatTypeCounts(byType map[string]int) string {
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s %d", t, byType[t])
	}
	return strings.Join(parts, ", ")
}
