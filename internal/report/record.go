// Package report defines the Report Record produced by one analysis run and
// the Normalizer that builds it from the raw model reply.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Record is the outcome of one normalization pass: either a populated report
// shape or the error shape. The underlying fields are whatever the model
// returned — unknown keys survive into the raw JSON output untouched.
// A Record is immutable once produced; each pipeline run creates a fresh one.
type Record struct {
	fields map[string]any
}

// PatientDetails holds the free-text patient block extracted from the report.
type PatientDetails struct {
	Name   string `json:"name,omitempty"`
	Age    string `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
	ID     string `json:"id,omitempty"`
}

// Empty reports whether no patient field was extracted.
func (p PatientDetails) Empty() bool {
	return p.Name == "" && p.Age == "" && p.Gender == "" && p.ID == ""
}

// Parameter is one row of the blood parameter table.
type Parameter struct {
	Parameter      string `json:"parameter"`
	Value          string `json:"value,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Abnormal reports whether the status equals "abnormal" case-insensitively.
// Any other status string counts as normal, surrounding whitespace included.
func (p Parameter) Abnormal() bool {
	return strings.EqualFold(p.Status, "abnormal")
}

// Report is the typed view of a successfully normalized record, used by the
// renderer and the display formatter. Fields the model omitted stay zero.
type Report struct {
	PatientDetails    *PatientDetails `json:"patient_details,omitempty"`
	TestDate          string          `json:"test_date,omitempty"`
	BloodParameters   []Parameter     `json:"blood_parameters,omitempty"`
	Summary           []string        `json:"summary,omitempty"`
	Disclaimer        []string        `json:"disclaimer,omitempty"`
	AnalysisTimestamp string          `json:"analysis_timestamp,omitempty"`
}

// ErrorInfo is the error variant of a Record.
type ErrorInfo struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// Parse reads a Record from its JSON representation, for example a record
// file written by a previous `analyze` invocation.
func Parse(data []byte) (*Record, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}
	return &Record{fields: fields}, nil
}

// IsError reports whether this record is the error variant. Downstream
// consumers must check this before treating the record as a real report.
func (r *Record) IsError() bool {
	_, ok := r.fields["error"]
	return ok
}

// ErrorInfo returns the error variant fields. The second return is false for
// success-variant records.
func (r *Record) ErrorInfo() (ErrorInfo, bool) {
	if !r.IsError() {
		return ErrorInfo{}, false
	}
	var info ErrorInfo
	if err := r.decode(&info); err != nil {
		return ErrorInfo{}, false
	}
	return info, true
}

// Report returns the typed report view of a success-variant record.
func (r *Record) Report() (*Report, error) {
	if r.IsError() {
		return nil, fmt.Errorf("record is an error variant: %v", r.fields["error"])
	}
	var rep Report
	if err := r.decode(&rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// JSON returns the indented JSON representation of the record, preserving
// every field the model produced.
func (r *Record) JSON() ([]byte, error) {
	out, err := json.MarshalIndent(r.fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return out, nil
}

// Fields returns the underlying field map. Callers must not mutate it.
func (r *Record) Fields() map[string]any {
	return r.fields
}

// decode round-trips the field map through JSON into a typed value.
func (r *Record) decode(v any) error {
	raw, err := json.Marshal(r.fields)
	if err != nil {
		return fmt.Errorf("failed to encode record fields: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode record fields: %w", err)
	}
	return nil
}
