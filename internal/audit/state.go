package audit

import (
	"fmt"
	"time"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/contract"
	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// Stage is a step of the audit pipeline. Stages run in a fixed linear
// order; DONE and FAILED are terminal.
type Stage string

const (
	StageExtract         Stage = "EXTRACT"
	StageBuildGraph      Stage = "BUILD_GRAPH"
	StageCheckCompliance Stage = "CHECK_COMPLIANCE"
	StageGenerateReport  Stage = "GENERATE_REPORT"
	StageDone            Stage = "DONE"
	StageFailed          Stage = "FAILED"
)

// Stages lists the working stages in execution order.
var Stages = []Stage{StageExtract, StageBuildGraph, StageCheckCompliance, StageGenerateReport}

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}

// IsTerminal returns true if no further stage runs after s.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}

// StageError is a failure recorded during a stage. Element identifies the
// clause, entity, relationship or risk that caused it, when there is one.
type StageError struct {
	Stage   Stage           `json:"stage"`
	Element string          `json:"element,omitempty"`
	Code    types.ErrorCode `json:"code,omitempty"`
	Message string          `json:"message"`
	Err     error           `json:"-"`
}

// String renders the error as it appears in reports and CLI output.
func (e StageError) String() string {
	if e.Element != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Stage, e.Element, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
}

// WriteCounts counts successful graph writes by element kind.
type WriteCounts struct {
	Clauses       int `json:"clauses"`
	Entities      int `json:"entities"`
	Relationships int `json:"relationships"`
	Risks         int `json:"risks"`
}

// PipelineState is threaded through the stages of one run. It is owned by
// that run alone and handed from stage to stage; it is not safe for
// concurrent use.
type PipelineState struct {
	RunID   types.ID `json:"run_id"`
	RawText string   `json:"-"`

	// Extraction output
	Clauses        []contract.Clause       `json:"clauses"`
	Entities       []contract.Entity       `json:"entities"`
	Relationships  []contract.Relationship `json:"relationships"`
	ExtractedRisks []contract.Risk         `json:"extracted_risks,omitempty"`

	Written WriteCounts `json:"written"`

	// Analysis output
	Contradictions []contract.Contradiction `json:"contradictions"`
	Risks          []contract.Risk          `json:"risks"`
	Stats          contract.GraphStats      `json:"stats"`

	Errors    []StageError   `json:"errors"`
	Report    string         `json:"report,omitempty"`
	Completed map[Stage]bool `json:"completed"`
	Current   Stage          `json:"current"`

	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewPipelineState creates the state for a new run over text.
func NewPipelineState(text string, startedAt time.Time) *PipelineState {
	completed := make(map[Stage]bool, len(Stages))
	for _, stage := range Stages {
		completed[stage] = false
	}
	return &PipelineState{
		RunID:     types.NewID(),
		RawText:   text,
		Completed: completed,
		Current:   StageExtract,
		StartedAt: startedAt,
		Metadata:  make(map[string]any),
	}
}

// RecordError appends err to the error list, tagged with stage and element.
func (s *PipelineState) RecordError(stage Stage, element string, err error) {
	s.Errors = append(s.Errors, StageError{
		Stage:   stage,
		Element: element,
		Code:    types.CodeOf(err),
		Message: err.Error(),
		Err:     err,
	})
}

// ErrorsFor returns the errors recorded during stage.
func (s *PipelineState) ErrorsFor(stage Stage) []StageError {
	var out []StageError
	for _, e := range s.Errors {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// HasErrors returns true if any stage recorded an error.
func (s *PipelineState) HasErrors() bool {
	return len(s.Errors) > 0
}

// Failed returns true if the run ended in FAILED.
func (s *PipelineState) Failed() bool {
	return s.Current == StageFailed
}

// Duration returns how long the run took, or zero while it is running.
func (s *PipelineState) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return 0
	}
	return s.CompletedAt.Sub(s.StartedAt)
}
