package layout

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/schemalab/circuitlay/pkg/errors"
)

// Document is the serialized form of a convergence result, suitable for
// JSON files, the HTTP API, and the dataset store.
type Document struct {
	RunID       string    `json:"run_id" bson:"run_id"`
	GeneratedAt time.Time `json:"generated_at" bson:"generated_at"`
	CircuitName string    `json:"circuit_name,omitempty" bson:"circuit_name,omitempty"`

	Status    Status      `json:"status" bson:"status"`
	Attempts  int         `json:"attempts" bson:"attempts"`
	Remaining []Collision `json:"remaining,omitempty" bson:"remaining,omitempty"`
	Failed    []string    `json:"failed,omitempty" bson:"failed,omitempty"`

	Layout *Layout `json:"layout" bson:"layout"`
}

// NewDocument wraps a result for serialization, stamping a fresh run ID
// and timestamp.
func NewDocument(circuitName string, res *Result) *Document {
	return &Document{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		CircuitName: circuitName,
		Status:      res.Status,
		Attempts:    res.Attempts,
		Remaining:   res.Remaining,
		Failed:      res.Failed,
		Layout:      res.Layout,
	}
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to marshal layout document")
	}
	return data, nil
}

// WriteFile writes the document to path as JSON.
func (d *Document) WriteFile(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write layout document: %s", path)
	}
	return nil
}

// UnmarshalDocument decodes a layout document from JSON.
func UnmarshalDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "failed to unmarshal layout document")
	}
	if d.Layout == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "layout document has no layout")
	}
	return &d, nil
}

// ReadDocumentFile reads and decodes a layout document from disk.
func ReadDocumentFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "layout document not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "failed to read layout document: %s", path)
	}
	return UnmarshalDocument(data)
}
