package pool

import (
	"sort"

	"github.com/kyiku/caritas-study-back/internal/model"
)

// SelectMath returns a random problem for grade/unit/level, or nil.
// unit == model.AllUnits merges the level bucket of every unit in the grade.
func (p *Pool) SelectMath(grade, unit, level string) (problem *model.MathProblem) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("math selection panicked", "grade", grade, "unit", unit, "level", level, "panic", r)
			problem = nil
		}
	}()

	p.mu.Lock()
	doc := p.store.Load()
	p.mu.Unlock()

	units, ok := doc.Math[grade]
	if !ok {
		return nil
	}

	var candidates []model.MathProblem
	if unit == model.AllUnits {
		names := make([]string, 0, len(units))
		for name := range units {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			candidates = append(candidates, units[name][level]...)
		}
	} else {
		candidates = units[unit][level]
	}

	if len(candidates) == 0 {
		return nil
	}
	picked := candidates[p.intn(len(candidates))]
	return &picked
}

// Selection describes how SelectEnglish arrived at its result.
type Selection struct {
	IsPriorityWord         bool `json:"is_priority_word"`
	PriorityWordsAvailable int  `json:"priority_words_available"`
	ExcludeWordsCount      int  `json:"exclude_words_count"`
}

// SelectEnglish returns a random vocabulary problem for grade/level.
//
// Priority words win whenever any is present in the bucket. Otherwise
// excluded words are skipped, unless that would leave nothing, in which
// case the whole bucket is used.
func (p *Pool) SelectEnglish(grade, level string, exclude, priority []string) (problem *model.EnglishProblem, sel Selection) {
	sel.ExcludeWordsCount = len(exclude)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("english selection panicked", "grade", grade, "level", level, "panic", r)
			problem = nil
		}
	}()

	p.mu.Lock()
	doc := p.store.Load()
	p.mu.Unlock()

	bucket := doc.English[grade][level]
	if len(bucket) == 0 {
		return nil, sel
	}

	if len(priority) > 0 {
		wanted := toSet(priority)
		var matched []model.EnglishProblem
		for _, item := range bucket {
			if wanted[item.Word] {
				matched = append(matched, item)
			}
		}
		sel.PriorityWordsAvailable = len(matched)
		if len(matched) > 0 {
			picked := matched[p.intn(len(matched))]
			sel.IsPriorityWord = true
			return &picked, sel
		}
	}

	candidates := bucket
	if len(exclude) > 0 {
		skip := toSet(exclude)
		var kept []model.EnglishProblem
		for _, item := range bucket {
			if !skip[item.Word] {
				kept = append(kept, item)
			}
		}
		if len(kept) > 0 {
			candidates = kept
		}
	}

	picked := candidates[p.intn(len(candidates))]
	return &picked, sel
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
