// Package model provides data models for the problem pool.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Subject constants
const (
	SubjectMath    = "math"
	SubjectEnglish = "english"
)

// Level constants. Every grade (and grade/unit for math) gets all four
// buckets as soon as it is first touched.
const (
	LevelBasic    = "基礎"
	LevelStandard = "標準"
	LevelAdvanced = "応用"
	LevelExpert   = "発展"
)

// Levels lists the level buckets in display order.
var Levels = []string{LevelBasic, LevelStandard, LevelAdvanced, LevelExpert}

// AllUnits is the wildcard unit that merges every unit of a grade.
const AllUnits = "全分野"

// SolutionStep is one step of a worked math solution.
type SolutionStep struct {
	Step        string `json:"step"`
	Content     string `json:"content"`
	Explanation string `json:"explanation,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// MathProblem represents a generated math problem stored in the pool.
type MathProblem struct {
	ID                 string         `json:"id"`
	Grade              string         `json:"grade"`
	Unit               string         `json:"unit"`
	Level              string         `json:"level"`
	Problem            string         `json:"problem"`
	Steps              []SolutionStep `json:"steps"`
	Answer             Answer         `json:"answer"`
	Hint               string         `json:"hint,omitempty"`
	DifficultyAnalysis string         `json:"difficulty_analysis,omitempty"`
	LearningPoint      string         `json:"learning_point,omitempty"`
	Source             string         `json:"source,omitempty"`
	CreatedAt          string         `json:"created_at,omitempty"`
}

// Answer is the final answer of a math problem. Generated problems
// sometimes carry a bare number; it is kept as its JSON text.
type Answer string

// UnmarshalJSON accepts a JSON string or number. null leaves it empty.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Answer(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer must be a string or number: %w", err)
	}
	*a = Answer(n.String())
	return nil
}

// ExampleSentence is an English example with its Japanese translation.
type ExampleSentence struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

// EnglishProblem represents a four-choice vocabulary quiz item.
type EnglishProblem struct {
	ID                 string            `json:"id,omitempty"`
	Word               string            `json:"word"`
	Pronunciation      string            `json:"pronunciation,omitempty"`
	Grade              string            `json:"grade"`
	Level              string            `json:"level"`
	CorrectMeaning     string            `json:"correct_meaning"`
	WrongOptions       []string          `json:"wrong_options"`
	Explanation        string            `json:"explanation,omitempty"`
	Examples           []ExampleSentence `json:"examples"`
	DifficultyAnalysis string            `json:"difficulty_analysis,omitempty"`
	LearningPoint      string            `json:"learning_point,omitempty"`
	Source             string            `json:"source,omitempty"`
	CreatedAt          string            `json:"created_at,omitempty"`
}

// Stats holds aggregate pool counters.
type Stats struct {
	TotalProblems   int            `json:"total_problems"`
	ProblemsByGrade map[string]int `json:"problems_by_grade"`
	LastUpdated     string         `json:"last_updated,omitempty"`
}

// PoolDocument is the root of the persisted pool file.
//
// math:    grade -> unit -> level -> problems
// english: grade -> level -> problems
type PoolDocument struct {
	Math    map[string]map[string]map[string][]MathProblem `json:"math"`
	English map[string]map[string][]EnglishProblem         `json:"english"`
	Stats   Stats                                          `json:"stats"`
}

// NewPoolDocument returns an empty pool document.
func NewPoolDocument() *PoolDocument {
	return &PoolDocument{
		Math:    make(map[string]map[string]map[string][]MathProblem),
		English: make(map[string]map[string][]EnglishProblem),
		Stats: Stats{
			TotalProblems:   0,
			ProblemsByGrade: make(map[string]int),
		},
	}
}

// Normalize fills in nil maps left by a sparse JSON file.
func (d *PoolDocument) Normalize() {
	if d.Math == nil {
		d.Math = make(map[string]map[string]map[string][]MathProblem)
	}
	if d.English == nil {
		d.English = make(map[string]map[string][]EnglishProblem)
	}
	if d.Stats.ProblemsByGrade == nil {
		d.Stats.ProblemsByGrade = make(map[string]int)
	}
}

// EnsureMathBucket creates grade/unit and all level buckets if missing
// and returns nothing; the caller indexes the level it needs.
func (d *PoolDocument) EnsureMathBucket(grade, unit string) {
	d.Normalize()
	units, ok := d.Math[grade]
	if !ok {
		units = make(map[string]map[string][]MathProblem)
		d.Math[grade] = units
	}
	levels, ok := units[unit]
	if !ok {
		levels = make(map[string][]MathProblem)
		units[unit] = levels
	}
	for _, lv := range Levels {
		if _, ok := levels[lv]; !ok {
			levels[lv] = []MathProblem{}
		}
	}
}

// EnsureEnglishBucket creates the grade and all level buckets if missing.
func (d *PoolDocument) EnsureEnglishBucket(grade string) {
	d.Normalize()
	levels, ok := d.English[grade]
	if !ok {
		levels = make(map[string][]EnglishProblem)
		d.English[grade] = levels
	}
	for _, lv := range Levels {
		if _, ok := levels[lv]; !ok {
			levels[lv] = []EnglishProblem{}
		}
	}
}

// BucketKey identifies one bucket in the flat view of the pool.
// Unit is empty for english buckets.
type BucketKey struct {
	Subject string
	Grade   string
	Unit    string
	Level   string
}

// Bucket is a flat-view entry: the key plus its problem count.
type Bucket struct {
	BucketKey
	Count int
}

// Buckets flattens the nested maps into a list of (key, count) pairs
// sorted by subject, grade, unit, level.
func (d *PoolDocument) Buckets() []Bucket {
	var out []Bucket
	for grade, units := range d.Math {
		for unit, levels := range units {
			for level, problems := range levels {
				out = append(out, Bucket{
					BucketKey: BucketKey{Subject: SubjectMath, Grade: grade, Unit: unit, Level: level},
					Count:     len(problems),
				})
			}
		}
	}
	for grade, levels := range d.English {
		for level, problems := range levels {
			out = append(out, Bucket{
				BucketKey: BucketKey{Subject: SubjectEnglish, Grade: grade, Level: level},
				Count:     len(problems),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Grade != b.Grade {
			return a.Grade < b.Grade
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.Level < b.Level
	})
	return out
}

// RecountStats rebuilds total_problems and problems_by_grade from the buckets.
func (d *PoolDocument) RecountStats() {
	d.Normalize()
	total := 0
	byGrade := make(map[string]int)
	for _, b := range d.Buckets() {
		total += b.Count
		if b.Count > 0 {
			byGrade[b.Grade] += b.Count
		}
	}
	d.Stats.TotalProblems = total
	d.Stats.ProblemsByGrade = byGrade
}
