package sqlgen

import (
	"sort"

	"github.com/datapilot-ai/datapilot-engine/pkg/models"
)

// Dependency names a resolvable prerequisite of SQL generation.
type Dependency string

const (
	DependencyTimeWindow Dependency = "time_window"
	DependencySchema     Dependency = "schema"
)

// Readiness is the dependency-resolution state of a request.
type Readiness string

const (
	ReadinessMissingTime   Readiness = "MISSING_TIME"
	ReadinessMissingSchema Readiness = "MISSING_SCHEMA"
	ReadinessReady         Readiness = "READY"
)

// DependencyState tracks which prerequisites have been resolved. It is owned
// by a single invocation and mutated only through the setters, which move a
// dependency from missing to resolved in one step.
type DependencyState struct {
	timeWindow *models.TimeRange
	schema     models.Schema
	resolved   map[Dependency]bool
	missing    map[Dependency]bool
}

// NewDependencyState starts with both dependencies missing.
func NewDependencyState() *DependencyState {
	return &DependencyState{
		resolved: make(map[Dependency]bool),
		missing: map[Dependency]bool{
			DependencyTimeWindow: true,
			DependencySchema:     true,
		},
	}
}

// SetTimeWindow resolves the time dependency.
func (s *DependencyState) SetTimeWindow(window *models.TimeRange) {
	if window == nil || window.IsZero() {
		return
	}
	s.timeWindow = window
	delete(s.missing, DependencyTimeWindow)
	s.resolved[DependencyTimeWindow] = true
}

// SetSchema resolves the schema dependency.
func (s *DependencyState) SetSchema(schema models.Schema) {
	if len(schema) == 0 {
		return
	}
	s.schema = schema
	delete(s.missing, DependencySchema)
	s.resolved[DependencySchema] = true
}

// TimeWindow returns the resolved window, or nil.
func (s *DependencyState) TimeWindow() *models.TimeRange {
	return s.timeWindow
}

// Schema returns the resolved schema, or nil.
func (s *DependencyState) Schema() models.Schema {
	return s.schema
}

// Readiness evaluates dependencies in fixed order: the time window first,
// then the schema. It is never READY while either is unset.
func (s *DependencyState) Readiness() Readiness {
	if s.timeWindow == nil {
		return ReadinessMissingTime
	}
	if len(s.schema) == 0 {
		return ReadinessMissingSchema
	}
	return ReadinessReady
}

// Resolved returns the resolved dependency names, sorted.
func (s *DependencyState) Resolved() []Dependency {
	return sortedDeps(s.resolved)
}

// Missing returns the missing dependency names, sorted.
func (s *DependencyState) Missing() []Dependency {
	return sortedDeps(s.missing)
}

func sortedDeps(set map[Dependency]bool) []Dependency {
	deps := make([]Dependency, 0, len(set))
	for d := range set {
		deps = append(deps, d)
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i] < deps[j] })
	return deps
}

// GenerationAttempt records one generation attempt for the retry prompt and
// the exhaustion summary.
type GenerationAttempt struct {
	Index     int
	SQL       string
	RawOutput string
	Error     string
	Issues    []string
}

// Reason summarizes why the attempt failed, preferring validation issues over
// the transport-level error.
func (a GenerationAttempt) Reason() string {
	if len(a.Issues) > 0 {
		return a.Issues[0]
	}
	return a.Error
}

// SQLContext is the per-invocation state holder. Created at entry, discarded
// at exit, never shared between invocations.
type SQLContext struct {
	Query          string
	Deps           *DependencyState
	Clarifications map[string]string

	attempts     []GenerationAttempt
	candidateSQL []string
}

// NewSQLContext creates the state for one pipeline invocation.
func NewSQLContext(query string, clarifications map[string]string) *SQLContext {
	return &SQLContext{
		Query:          query,
		Deps:           NewDependencyState(),
		Clarifications: clarifications,
	}
}

// AddAttempt appends to the ordered attempt log.
func (c *SQLContext) AddAttempt(attempt GenerationAttempt) {
	c.attempts = append(c.attempts, attempt)
}

// Attempts returns the attempt log in order.
func (c *SQLContext) Attempts() []GenerationAttempt {
	return c.attempts
}

// AddCandidateSQL records SQL that reached validation.
func (c *SQLContext) AddCandidateSQL(sql string) {
	c.candidateSQL = append(c.candidateSQL, sql)
}

// CandidateSQL returns every SQL string that reached validation, in order.
func (c *SQLContext) CandidateSQL() []string {
	return c.candidateSQL
}
