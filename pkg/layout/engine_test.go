package layout

import (
	"testing"

	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/geom"
)

func converge(t *testing.T, c *circuit.Circuit, opts Options) *Result {
	t.Helper()
	l, err := Place(c, opts)
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	res, err := Converge(l, opts)
	if err != nil {
		t.Fatalf("Converge() error: %v", err)
	}
	return res
}

func TestConvergeZeroComponents(t *testing.T) {
	c := &circuit.Circuit{Chip: circuit.Chip{Name: "U1", PinCount: 8}}
	res := converge(t, c, DefaultOptions())
	if !res.Converged() {
		t.Errorf("status = %v, want converged", res.Status)
	}
	if res.Attempts != 0 || len(res.Remaining) != 0 {
		t.Errorf("attempts = %d, remaining = %v", res.Attempts, res.Remaining)
	}
}

func TestConvergeTwoResistorsOnOnePin(t *testing.T) {
	opts := DefaultOptions()
	res := converge(t, twoResistorCircuit(), opts)

	if !res.Converged() {
		t.Fatalf("status = %v, remaining = %v", res.Status, res.Remaining)
	}

	l := res.Layout
	r1, r2 := l.Item("R1"), l.Item("R2")
	if r1.Pos == r2.Pos {
		t.Error("resistors still co-located after convergence")
	}
	if len(Detect(l, opts)) != 0 {
		t.Error("converged layout still has collisions")
	}
	// R2 is later in creation order and must be the one that moved.
	if r2.Moves == 0 {
		t.Error("mover policy should relocate the later component")
	}
}

func TestConvergeIsIdempotentWhenConverged(t *testing.T) {
	opts := DefaultOptions()
	res := converge(t, twoResistorCircuit(), opts)
	if !res.Converged() {
		t.Fatalf("setup did not converge: %v", res.Remaining)
	}

	before := make([]geom.Point, len(res.Layout.Items))
	for i, it := range res.Layout.Items {
		before[i] = it.Pos
	}

	again, err := Converge(res.Layout, opts)
	if err != nil {
		t.Fatalf("second Converge() error: %v", err)
	}
	if !again.Converged() || again.Attempts != 0 {
		t.Errorf("second run: status = %v, attempts = %d", again.Status, again.Attempts)
	}
	for i, it := range res.Layout.Items {
		if it.Pos != before[i] {
			t.Errorf("item %d moved on second run: %+v -> %+v", i, before[i], it.Pos)
		}
	}
}

func TestConvergeOversizedComponentUnresolved(t *testing.T) {
	// A component far larger than the search area can never find a free
	// position; the run must terminate unresolved with it flagged, not
	// loop forever.
	c := &circuit.Circuit{
		Chip: circuit.Chip{Name: "U1", PinCount: 2},
		Components: []circuit.Component{
			{ID: "V1", Type: circuit.TypeVoltageSource, Params: circuit.Params{Radius: 500}},
		},
		Nets: []circuit.Net{{ChipPin: 1, ComponentID: "V1"}},
	}
	opts := Options{CanvasWidth: 10, CanvasHeight: 10}
	res := converge(t, c, opts)

	if res.Converged() {
		t.Fatal("oversized component cannot converge")
	}
	if len(res.Remaining) == 0 {
		t.Error("unresolved run must report remaining collisions")
	}
	if len(res.Failed) != 1 || res.Failed[0] != "V1" {
		t.Errorf("failed = %v, want [V1]", res.Failed)
	}
	if res.Layout.Item("V1").Resolved {
		t.Error("failed component must be flagged unresolved")
	}
	if !errors.Is(res.Err(), errors.ErrCodeResolutionFailed) {
		t.Errorf("Err() = %v, want resolution failure code", res.Err())
	}
}

func TestResultErr(t *testing.T) {
	converged := &Result{Status: StatusConverged}
	if err := converged.Err(); err != nil {
		t.Errorf("converged Err() = %v, want nil", err)
	}

	failed := &Result{Status: StatusUnresolved, Failed: []string{"R1"}}
	if !errors.Is(failed.Err(), errors.ErrCodeResolutionFailed) {
		t.Errorf("Err() = %v, want resolution failure code", failed.Err())
	}

	exhausted := &Result{
		Status:    StatusUnresolved,
		Attempts:  100,
		Remaining: []Collision{{A: "R1", B: "R2"}},
	}
	if !errors.Is(exhausted.Err(), errors.ErrCodeBudgetExceeded) {
		t.Errorf("Err() = %v, want budget exceeded code", exhausted.Err())
	}
}

func TestConvergeBudgetExceeded(t *testing.T) {
	opts := Options{MaxAttempts: 1, SpiralSamples: 1, SpiralStep: 0.1}
	res := converge(t, twoResistorCircuit(), opts)
	if res.Converged() {
		t.Skip("layout converged within a single attempt")
	}
	if res.Attempts > 1 {
		t.Errorf("attempts = %d, budget was 1", res.Attempts)
	}
	if len(res.Remaining) == 0 {
		t.Error("unresolved run must report remaining collisions")
	}
}

func TestConvergeRestoresBestLayout(t *testing.T) {
	// With a tiny budget the run ends unresolved; the returned layout
	// must never be worse than the initial arrangement.
	c := twoResistorCircuit()
	opts := Options{MaxAttempts: 1, SpiralSamples: 2, SpiralStep: 0.2}

	l, err := Place(c, opts)
	if err != nil {
		t.Fatalf("Place() error: %v", err)
	}
	initial := len(Detect(l, opts))

	res, err := Converge(l, opts)
	if err != nil {
		t.Fatalf("Converge() error: %v", err)
	}
	if res.Converged() {
		t.Skip("layout converged within a single attempt")
	}
	if got := len(res.Remaining); got > initial {
		t.Errorf("returned layout has %d collisions, initial had %d", got, initial)
	}
}

func TestResolveFindsNearestFreePosition(t *testing.T) {
	opts := DefaultOptions()
	chip := circuit.Chip{Name: "U1", PinCount: 8}
	l := &Layout{Chip: chip, ChipBox: chip.BBox(), CanvasWidth: 40, CanvasHeight: 30}

	blocker := &Item{Comp: circuit.Component{ID: "B1", Type: circuit.TypeLED}, Resolved: true}
	blocker.SetPos(geom.Point{X: 10, Y: 0})
	mover := &Item{Comp: circuit.Component{ID: "M1", Type: circuit.TypeLED}, Resolved: true}
	mover.SetPos(geom.Point{X: 10, Y: 0})
	l.Items = []*Item{blocker, mover}

	pos, ok := Resolve(l, 1, opts)
	if !ok {
		t.Fatal("expected a free position")
	}
	if d := mover.Pos.Distance(pos); d > opts.maxSearchRadius() {
		t.Errorf("candidate %v units away exceeds max radius", d)
	}

	mover.SetPos(pos)
	if len(Detect(l, opts)) != 0 {
		t.Errorf("position %+v still collides", pos)
	}
}

func TestResolveRespectsMaxRadius(t *testing.T) {
	opts := Options{CanvasWidth: 4, CanvasHeight: 4, MaxRadiusFactor: 0.5}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}

	chip := circuit.Chip{Name: "U1", PinCount: 8}
	l := &Layout{Chip: chip, ChipBox: chip.BBox(), CanvasWidth: 4, CanvasHeight: 4}

	// The mover starts on the chip; with a 2-unit search bound and the
	// chip margin there is nowhere legal to go.
	mover := &Item{Comp: circuit.Component{ID: "M1", Type: circuit.TypeLED}, Resolved: true}
	mover.SetPos(geom.Point{X: 0, Y: 0})
	l.Items = []*Item{mover}

	if _, ok := Resolve(l, 0, opts); ok {
		t.Error("resolver must fail when no position exists within max radius")
	}
}
