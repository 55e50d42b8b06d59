package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Plan Serialization API
// =============================================================================

// MarshalPlan converts a plan to indented JSON bytes.
func MarshalPlan(p Plan) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePlan(p, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalPlan deserializes JSON bytes to a Plan.
func UnmarshalPlan(data []byte) (Plan, error) {
	return ReadPlan(bytes.NewReader(data))
}

// WritePlan writes a plan as JSON to an io.Writer.
func WritePlan(p Plan, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WritePlanFile writes a plan to a JSON file.
// The file is created with 0644 permissions.
func WritePlanFile(p Plan, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WritePlan(p, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPlan decodes a JSON plan from an io.Reader.
// Unknown fields are rejected so that asset graphs passed by mistake fail fast.
func ReadPlan(r io.Reader) (Plan, error) {
	var p Plan
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Plan{}, fmt.Errorf("decode: %w", err)
	}
	return p, nil
}

// ReadPlanFile reads a JSON plan file.
func ReadPlanFile(path string) (Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return Plan{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPlan(f)
}
