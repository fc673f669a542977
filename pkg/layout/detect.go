package layout

// ChipID is the sentinel identity the detector reports for the chip.
// The chip only ever appears as the second member of a pair and is
// never selected for relocation.
const ChipID = "__chip__"

// Collision is an unordered pair of overlapping footprints, reported
// with A before B in evaluation order.
type Collision struct {
	A string `json:"a" bson:"a"`
	B string `json:"b" bson:"b"`
}

// InvolvesChip reports whether one member of the pair is the chip.
func (c Collision) InvolvesChip() bool { return c.B == ChipID }

// Detect returns every colliding pair in the layout. Component pairs
// are evaluated in creation order (i before j), then each component is
// checked against the chip, so results are reproducible for identical
// input. Component pairs use the component margin; chip pairs use the
// larger chip margin.
func Detect(l *Layout, opts Options) []Collision {
	var out []Collision

	for i := 0; i < len(l.Items); i++ {
		for j := i + 1; j < len(l.Items); j++ {
			if l.Items[i].BBox.OverlapsMargin(l.Items[j].BBox, opts.Margin) {
				out = append(out, Collision{A: l.Items[i].Comp.ID, B: l.Items[j].Comp.ID})
			}
		}
	}

	for _, it := range l.Items {
		if it.BBox.OverlapsMargin(l.ChipBox, opts.ChipMargin) {
			out = append(out, Collision{A: it.Comp.ID, B: ChipID})
		}
	}

	return out
}
