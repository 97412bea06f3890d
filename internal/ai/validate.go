package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// OutputKind selects the required fields and schema for an LLM reply.
type OutputKind string

const (
	KindMath             OutputKind = "math"
	KindEnglish          OutputKind = "english"
	KindEnglishQuiz      OutputKind = "english_quiz"
	KindMathBatch        OutputKind = "math_batch"
	KindEnglishQuizBatch OutputKind = "english_quiz_batch"
)

var requiredFields = map[OutputKind][]string{
	KindMath:        {"grade", "level", "unit", "problem", "steps", "answer"},
	KindEnglish:     {"word", "meaning", "level", "examples"},
	KindEnglishQuiz: {"word", "correct_meaning", "wrong_options", "explanation"},
}

// itemKind maps a batch kind to the kind of its elements.
var itemKind = map[OutputKind]OutputKind{
	KindMathBatch:        KindMath,
	KindEnglishQuizBatch: KindEnglishQuiz,
}

var schemas = map[OutputKind]string{
	KindMath: `{
		"type": "object",
		"properties": {
			"problem": {"type": "string"},
			"answer": {"type": ["string", "number"]},
			"steps": {
				"type": "array",
				"minItems": 1,
				"items": {
					"type": "object",
					"required": ["step", "content"],
					"properties": {
						"step": {"type": "string"},
						"content": {"type": "string"}
					}
				}
			}
		}
	}`,
	KindEnglish: `{
		"type": "object",
		"properties": {
			"word": {"type": "string"},
			"examples": {"type": "array"}
		}
	}`,
	KindEnglishQuiz: `{
		"type": "object",
		"properties": {
			"word": {"type": "string"},
			"correct_meaning": {"type": "string"},
			"wrong_options": {
				"type": "array",
				"minItems": 3,
				"maxItems": 3,
				"items": {"type": "string", "minLength": 1}
			}
		}
	}`,
	KindMathBatch:        batchSchema,
	KindEnglishQuizBatch: batchSchema,
}

const batchSchema = `{
	"type": "object",
	"required": ["problems"],
	"properties": {
		"problems": {"type": "array", "minItems": 1}
	}
}`

var schemaCache sync.Map // map[OutputKind]*jsonschema.Schema

// StripCodeFence removes a surrounding ```json ... ``` fence if present.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ValidateOutput checks that raw is a JSON object of the given kind and
// returns it with any code fence removed. Failures are *ErrInvalidOutput.
func ValidateOutput(kind OutputKind, raw string) (string, error) {
	cleaned := StripCodeFence(raw)

	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(cleaned))
	if err != nil {
		return "", &ErrInvalidOutput{Raw: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return "", &ErrInvalidOutput{Raw: raw, Err: errors.New("response is not a JSON object")}
	}

	if item, isBatch := itemKind[kind]; isBatch {
		if err := validateBatch(kind, item, obj); err != nil {
			err.Raw = raw
			return "", err
		}
		return cleaned, nil
	}

	if missing := missingFields(obj, requiredFields[kind], ""); len(missing) > 0 {
		return "", &ErrInvalidOutput{Raw: raw, Missing: missing}
	}
	if err := validateSchema(kind, obj); err != nil {
		return "", &ErrInvalidOutput{Raw: raw, Err: err}
	}
	return cleaned, nil
}

func validateBatch(kind, item OutputKind, obj map[string]any) *ErrInvalidOutput {
	if !truthy(obj["problems"]) {
		return &ErrInvalidOutput{Missing: []string{"problems"}}
	}
	if err := validateSchema(kind, obj); err != nil {
		return &ErrInvalidOutput{Err: err}
	}

	problems, _ := obj["problems"].([]any)
	var missing []string
	for i, p := range problems {
		prefix := fmt.Sprintf("problems[%d].", i)
		entry, ok := p.(map[string]any)
		if !ok {
			return &ErrInvalidOutput{Err: fmt.Errorf("%s is not an object", strings.TrimSuffix(prefix, "."))}
		}
		if m := missingFields(entry, requiredFields[item], prefix); len(m) > 0 {
			missing = append(missing, m...)
			continue
		}
		if err := validateSchema(item, entry); err != nil {
			return &ErrInvalidOutput{Err: fmt.Errorf("%s: %w", strings.TrimSuffix(prefix, "."), err)}
		}
	}
	if len(missing) > 0 {
		return &ErrInvalidOutput{Missing: missing}
	}
	return nil
}

// missingFields reports every required field whose value is falsy.
func missingFields(obj map[string]any, required []string, prefix string) []string {
	var missing []string
	for _, f := range required {
		if !truthy(obj[f]) {
			missing = append(missing, prefix+f)
		}
	}
	return missing
}

// truthy follows JavaScript truthiness: absent, null, false, 0 and ""
// are missing; empty arrays and objects are present.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	case float64:
		return x != 0
	default:
		return true
	}
}

func validateSchema(kind OutputKind, v any) error {
	compiled, err := compiledSchema(kind)
	if err != nil {
		return fmt.Errorf("compile schema %q: %w", kind, err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

func compiledSchema(kind OutputKind) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(kind); ok {
		return cached.(*jsonschema.Schema), nil
	}

	def, ok := schemas[kind]
	if !ok {
		return nil, fmt.Errorf("unknown output kind %q", kind)
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", kind)
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(kind, compiled)
	return compiled, nil
}
