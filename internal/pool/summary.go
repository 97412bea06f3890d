package pool

import (
	"github.com/kyiku/caritas-study-back/internal/model"
	"github.com/kyiku/caritas-study-back/internal/util"
)

// Combination is one non-empty bucket in the summary.
type Combination struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
	Unit    string `json:"unit,omitempty"`
	Level   string `json:"level"`
	Count   int    `json:"count"`
}

// Summary aggregates pool counts for the stats endpoint.
type Summary struct {
	TotalProblems int            `json:"total_problems"`
	LastUpdated   string         `json:"last_updated,omitempty"`
	BySubject     map[string]int `json:"by_subject"`
	ByGrade       map[string]int `json:"by_grade"`
	ByLevel       map[string]int `json:"by_level"`
	ByUnit        map[string]int `json:"by_unit"`
	Available     []Combination  `json:"available"`
}

// Summary computes aggregate counts from the current pool file.
func (p *Pool) Summary() Summary {
	p.mu.Lock()
	doc := p.store.Load()
	p.mu.Unlock()

	s := Summary{
		LastUpdated: doc.Stats.LastUpdated,
		BySubject:   map[string]int{model.SubjectMath: 0, model.SubjectEnglish: 0},
		ByGrade:     make(map[string]int),
		ByLevel:     make(map[string]int),
		ByUnit:      make(map[string]int),
		Available:   []Combination{},
	}

	for _, b := range doc.Buckets() {
		if b.Count == 0 {
			continue
		}
		s.TotalProblems += b.Count
		s.BySubject[b.Subject] += b.Count
		s.ByGrade[b.Grade] += b.Count
		s.ByLevel[b.Level] += b.Count
		if b.Subject == model.SubjectMath {
			s.ByUnit[b.Unit] += b.Count
		}
		s.Available = append(s.Available, Combination{
			Subject: b.Subject,
			Grade:   b.Grade,
			Unit:    b.Unit,
			Level:   b.Level,
			Count:   b.Count,
		})
	}
	return s
}

// Search limits.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// SearchFilter narrows SearchMath. Empty fields match everything.
type SearchFilter struct {
	Grade   string
	Unit    string
	Level   string
	Keyword string
	Limit   int
}

// SearchMath lists math problems matching filter in bucket order.
func (p *Pool) SearchMath(filter SearchFilter) []model.MathProblem {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	p.mu.Lock()
	doc := p.store.Load()
	p.mu.Unlock()

	results := []model.MathProblem{}
	for _, b := range doc.Buckets() {
		if b.Subject != model.SubjectMath || b.Count == 0 {
			continue
		}
		if filter.Grade != "" && b.Grade != filter.Grade {
			continue
		}
		if filter.Unit != "" && filter.Unit != model.AllUnits && b.Unit != filter.Unit {
			continue
		}
		if filter.Level != "" && b.Level != filter.Level {
			continue
		}
		for _, problem := range doc.Math[b.Grade][b.Unit][b.Level] {
			if filter.Keyword != "" && !util.ContainsNormalized(problem.Problem, filter.Keyword) {
				continue
			}
			results = append(results, problem)
			if len(results) >= limit {
				return results
			}
		}
	}
	return results
}
