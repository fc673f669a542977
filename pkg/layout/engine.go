package layout

import (
	"sort"
	"strings"

	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/geom"
)

// Status is the terminal state of a convergence run.
type Status string

const (
	// StatusConverged means no pair of footprints overlaps.
	StatusConverged Status = "converged"

	// StatusUnresolved means collisions remain: the attempt budget ran
	// out or every outstanding collision's mover exhausted its search
	// radius. The returned layout is the best arrangement seen.
	StatusUnresolved Status = "unresolved"
)

// Result is the outcome of a convergence run.
type Result struct {
	Layout   *Layout `json:"layout" bson:"layout"`
	Status   Status  `json:"status" bson:"status"`
	Attempts int     `json:"attempts" bson:"attempts"`

	// Remaining lists the collisions still present in the returned
	// layout. Empty when converged.
	Remaining []Collision `json:"remaining,omitempty" bson:"remaining,omitempty"`

	// Failed lists components the spiral resolver gave up on.
	Failed []string `json:"failed,omitempty" bson:"failed,omitempty"`
}

// Converged reports whether the run ended collision free.
func (r *Result) Converged() bool { return r.Status == StatusConverged }

// Err returns the coded outcome of an unresolved run: nil when
// converged, a RESOLUTION_FAILED error when components exhausted their
// search radius, and a BUDGET_EXCEEDED error when the attempt budget
// ran out with collisions left. The layout itself is still usable.
func (r *Result) Err() error {
	if r.Converged() {
		return nil
	}
	if len(r.Failed) > 0 {
		return errors.New(errors.ErrCodeResolutionFailed,
			"no free position within the search radius for %s", strings.Join(r.Failed, ", "))
	}
	return errors.New(errors.ErrCodeBudgetExceeded,
		"attempt budget of %d exhausted with %d collisions remaining", r.Attempts, len(r.Remaining))
}

// Converge runs the detect/resolve loop on a placed layout until it is
// collision free or the attempt budget is exhausted.
//
// Each pass detects all collisions in deterministic order, picks the
// first pair whose mover has not already failed, and relocates the
// mover via the spiral resolver. The mover is never the chip; between
// two components it is the one later in creation order. Resolution
// failure flags the component and the loop continues with the rest.
// When the run cannot converge, the layout with the fewest collisions
// seen during the run is restored before returning.
func Converge(l *Layout, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	res := &Result{Layout: l, Status: StatusUnresolved}
	failed := make(map[string]bool)

	best := snapshot(l)
	bestCount := len(Detect(l, opts))

	for {
		collisions := Detect(l, opts)
		if len(collisions) == 0 {
			res.Status = StatusConverged
			return res, nil
		}
		if len(collisions) < bestCount {
			best = snapshot(l)
			bestCount = len(collisions)
		}

		idx := pickMover(l, collisions, failed)
		if idx < 0 {
			// Every outstanding collision's mover already failed.
			break
		}
		if res.Attempts >= opts.MaxAttempts {
			break
		}
		res.Attempts++

		it := l.Items[idx]
		if pos, ok := Resolve(l, idx, opts); ok {
			it.SetPos(pos)
			it.Moves++
		} else {
			failed[it.Comp.ID] = true
			it.Resolved = false
		}
	}

	restore(l, best)
	res.Remaining = Detect(l, opts)
	for _, c := range res.Remaining {
		if it := l.Item(c.A); it != nil {
			it.Resolved = false
		}
		if it := l.Item(c.B); it != nil {
			it.Resolved = false
		}
	}
	for id := range failed {
		res.Failed = append(res.Failed, id)
		if it := l.Item(id); it != nil {
			it.Resolved = false
		}
	}
	sort.Strings(res.Failed)
	return res, nil
}

// pickMover finds the first collision whose movable member has not
// failed resolution yet and returns that member's item index. The chip
// is never movable; between two components the later-created one moves.
func pickMover(l *Layout, collisions []Collision, failed map[string]bool) int {
	for _, c := range collisions {
		id := c.B
		if c.InvolvesChip() {
			id = c.A
		}
		if failed[id] {
			continue
		}
		for i, it := range l.Items {
			if it.Comp.ID == id {
				return i
			}
		}
	}
	return -1
}

// pose is one item's captured geometric state.
type pose struct {
	pos      geom.Point
	rotation float64
}

// snapshot captures item positions; restore puts them back and
// recomputes bounding boxes.
func snapshot(l *Layout) []pose {
	s := make([]pose, len(l.Items))
	for i, it := range l.Items {
		s[i] = pose{pos: it.Pos, rotation: it.Rotation}
	}
	return s
}

func restore(l *Layout, s []pose) {
	for i, it := range l.Items {
		it.Rotation = s[i].rotation
		it.SetPos(s[i].pos)
	}
}
