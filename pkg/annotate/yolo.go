// Package annotate exports layouts as YOLO object-detection annotations
// for training component detectors on rendered schematics.
//
// The annotation canvas is the layout's overall bounding box plus a
// margin, with the origin at the top-left corner and the Y axis pointing
// down. All coordinates are center-based, normalized by the canvas size,
// and clamped to [0, 1].
package annotate

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/geom"
	"github.com/schemalab/circuitlay/pkg/layout"
)

// ChipClass is the class name used for the central chip.
const ChipClass = "chip"

// CanvasMargin is the padding added around the overall layout bbox.
const CanvasMargin = 2.0

// Box is one annotated object in normalized canvas coordinates.
type Box struct {
	ClassID int     `json:"class_id"`
	Class   string  `json:"class"`
	Label   string  `json:"label,omitempty"`
	XCenter float64 `json:"x_center"`
	YCenter float64 `json:"y_center"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Canvas describes the annotation coordinate space in schematic units.
type Canvas struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	OriginX float64 `json:"origin_x"`
	OriginY float64 `json:"origin_y"`
}

// Annotations is a complete YOLO export for one layout.
type Annotations struct {
	Canvas  Canvas   `json:"canvas"`
	Classes []string `json:"classes"`
	Boxes   []Box    `json:"boxes"`
}

// Export builds YOLO annotations for a layout: the chip box first, then
// every component box in component ID order (numeric IDs sort
// numerically).
func Export(l *layout.Layout) (*Annotations, error) {
	if l == nil || l.Chip.PinCount == 0 {
		return nil, errors.New(errors.ErrCodeInvalidGeometry, "layout has no chip")
	}

	classes := classNames(l)
	classID := lo.SliceToMap(lo.Range(len(classes)), func(i int) (string, int) {
		return classes[i], i
	})
	canvas := canvasFor(l)

	ann := &Annotations{Canvas: canvas, Classes: classes}

	chipBox := normalize(canvas, l.ChipBox)
	chipBox.ClassID = classID[ChipClass]
	chipBox.Class = ChipClass
	chipBox.Label = l.Chip.Name
	ann.Boxes = append(ann.Boxes, chipBox)

	items := make([]*layout.Item, len(l.Items))
	copy(items, l.Items)
	sort.Slice(items, func(i, j int) bool {
		return idLess(items[i].Comp.ID, items[j].Comp.ID)
	})

	for _, it := range items {
		b := normalize(canvas, it.BBox)
		b.ClassID = classID[string(it.Comp.Type)]
		b.Class = string(it.Comp.Type)
		b.Label = it.Comp.ID
		ann.Boxes = append(ann.Boxes, b)
	}
	return ann, nil
}

// AnnotationText renders the boxes as YOLO text lines. Component lines
// carry a trailing comment with the component identity for debugging.
func (a *Annotations) AnnotationText() string {
	var sb strings.Builder
	for i, b := range a.Boxes {
		fmt.Fprintf(&sb, "%d %.6f %.6f %.6f %.6f", b.ClassID, b.XCenter, b.YCenter, b.Width, b.Height)
		if i > 0 {
			fmt.Fprintf(&sb, "  # %s_%s", b.Label, b.Class)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ClassesText renders the class list, one name per line, in class ID
// order.
func (a *Annotations) ClassesText() string {
	return strings.Join(a.Classes, "\n") + "\n"
}

// WriteFiles writes the annotation and class files.
func (a *Annotations) WriteFiles(annotationPath, classesPath string) error {
	if err := os.WriteFile(annotationPath, []byte(a.AnnotationText()), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write annotations: %s", annotationPath)
	}
	if err := os.WriteFile(classesPath, []byte(a.ClassesText()), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write classes: %s", classesPath)
	}
	return nil
}

// classNames collects the component types present in the layout plus the
// chip class, sorted alphabetically so class IDs are stable for a given
// type set.
func classNames(l *layout.Layout) []string {
	types := lo.Uniq(lo.Map(l.Items, func(it *layout.Item, _ int) string {
		return string(it.Comp.Type)
	}))
	types = append(types, ChipClass)
	sort.Strings(types)
	return types
}

// canvasFor pads the overall layout bbox and places the origin at the
// top-left corner, matching the downstream image coordinate system.
func canvasFor(l *layout.Layout) Canvas {
	b := l.Bounds()
	return Canvas{
		Width:   b.Width() + 2*CanvasMargin,
		Height:  b.Height() + 2*CanvasMargin,
		OriginX: b.MinX - CanvasMargin,
		OriginY: b.MaxY + CanvasMargin,
	}
}

// normalize converts a schematic-space bbox to center-based normalized
// canvas coordinates with the Y axis flipped.
func normalize(c Canvas, r geom.Rect) Box {
	return Box{
		XCenter: clamp01((r.CenterX() - c.OriginX) / c.Width),
		YCenter: clamp01((c.OriginY - r.CenterY()) / c.Height),
		Width:   clamp01(r.Width() / c.Width),
		Height:  clamp01(r.Height() / c.Height),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// idLess orders numeric IDs numerically and everything else after them
// lexically, so "2" sorts before "10" and before "R1".
func idLess(a, b string) bool {
	na, aerr := strconv.Atoi(a)
	nb, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		return na < nb
	case aerr == nil:
		return true
	case berr == nil:
		return false
	default:
		return a < b
	}
}

// =============================================================================
// Dataset info
// =============================================================================

// DatasetInfo summarizes an exported annotation set.
type DatasetInfo struct {
	DatasetID   string    `json:"dataset_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Format      string    `json:"format"`

	Canvas  Canvas       `json:"canvas"`
	Classes []ClassEntry `json:"classes"`

	TotalObjects      int            `json:"total_objects"`
	ClassDistribution map[string]int `json:"class_distribution"`
	BBoxSizeRange     SizeRange      `json:"bbox_size_range"`
}

// ClassEntry is one class ID assignment.
type ClassEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// SizeRange summarizes normalized bbox dimensions across the dataset.
type SizeRange struct {
	MinWidth  float64 `json:"min_width"`
	MaxWidth  float64 `json:"max_width"`
	AvgWidth  float64 `json:"avg_width"`
	MinHeight float64 `json:"min_height"`
	MaxHeight float64 `json:"max_height"`
	AvgHeight float64 `json:"avg_height"`
}

// Info builds the dataset summary for an annotation set.
func (a *Annotations) Info() *DatasetInfo {
	info := &DatasetInfo{
		DatasetID:   uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Format:      "YOLO",
		Canvas:      a.Canvas,
		Classes: lo.Map(a.Classes, func(name string, i int) ClassEntry {
			return ClassEntry{ID: i, Name: name}
		}),
		TotalObjects:      len(a.Boxes),
		ClassDistribution: lo.CountValuesBy(a.Boxes, func(b Box) string { return b.Class }),
	}

	if len(a.Boxes) > 0 {
		widths := lo.Map(a.Boxes, func(b Box, _ int) float64 { return b.Width })
		heights := lo.Map(a.Boxes, func(b Box, _ int) float64 { return b.Height })
		info.BBoxSizeRange = SizeRange{
			MinWidth:  lo.Min(widths),
			MaxWidth:  lo.Max(widths),
			AvgWidth:  lo.Sum(widths) / float64(len(widths)),
			MinHeight: lo.Min(heights),
			MaxHeight: lo.Max(heights),
			AvgHeight: lo.Sum(heights) / float64(len(heights)),
		}
	}
	return info
}
