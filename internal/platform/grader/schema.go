package grader

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaName = "answer_grade"

// rubricSchema is the JSON shape every provider is asked to return.
const rubricSchema = `{
  "type": "object",
  "properties": {
    "passed": {"type": "boolean"},
    "comment": {"type": "string"},
    "strength": {"type": "string"},
    "weakness": {"type": "string"},
    "problem_understanding": {"type": "integer", "minimum": 1, "maximum": 5},
    "principle_application": {"type": "integer", "minimum": 1, "maximum": 5},
    "knowledge_mastery": {"type": "integer", "minimum": 1, "maximum": 5},
    "logical_coherence": {"type": "integer", "minimum": 1, "maximum": 5},
    "fluency": {"type": "integer", "minimum": 1, "maximum": 5}
  },
  "required": [
    "passed", "comment", "strength", "weakness",
    "problem_understanding", "principle_application", "knowledge_mastery",
    "logical_coherence", "fluency"
  ],
  "additionalProperties": false
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// schemaDefinition returns the rubric schema as a generic JSON value, the
// form both the validator and the Anthropic SDK expect.
func schemaDefinition() map[string]any {
	var def map[string]any
	if err := json.Unmarshal([]byte(rubricSchema), &def); err != nil {
		// ALLOW-PANIC: the schema is a compile-time constant
		panic(err)
	}
	return def
}

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		url := fmt.Sprintf("schema://%s.json", schemaName)
		if err := c.AddResource(url, schemaDefinition()); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(url)
	})
	return compiled, compileErr
}

// wireGrade mirrors rubricSchema.
type wireGrade struct {
	Passed               bool   `json:"passed"`
	Comment              string `json:"comment"`
	Strength             string `json:"strength"`
	Weakness             string `json:"weakness"`
	ProblemUnderstanding int    `json:"problem_understanding"`
	PrincipleApplication int    `json:"principle_application"`
	KnowledgeMastery     int    `json:"knowledge_mastery"`
	LogicalCoherence     int    `json:"logical_coherence"`
	Fluency              int    `json:"fluency"`
}

// parseGrade validates raw against the rubric schema and converts it.
func parseGrade(raw string) (domain.GradeResult, error) {
	raw = stripCodeFence(raw)

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return domain.GradeResult{}, &InvalidResponseError{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	schema, err := compiledSchema()
	if err != nil {
		return domain.GradeResult{}, fmt.Errorf("compile schema %q: %w", schemaName, err)
	}
	if err := schema.Validate(parsed); err != nil {
		return domain.GradeResult{}, &InvalidResponseError{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var w wireGrade
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return domain.GradeResult{}, &InvalidResponseError{Content: raw, Err: err}
	}

	return domain.GradeResult{
		Passed:   w.Passed,
		Comment:  w.Comment,
		Strength: w.Strength,
		Weakness: w.Weakness,
		Rubric: map[string]int{
			domain.RubricProblemUnderstanding: w.ProblemUnderstanding,
			domain.RubricPrincipleApplication: w.PrincipleApplication,
			domain.RubricKnowledgeMastery:     w.KnowledgeMastery,
			domain.RubricLogicalCoherence:     w.LogicalCoherence,
			domain.RubricFluency:              w.Fluency,
		},
	}, nil
}

// stripCodeFence removes a surrounding ```json fence some models add even
// when asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
