package pool

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyiku/caritas-study-back/internal/model"
)

func TestPool_Summary(t *testing.T) {
	p := newTestPool(t)
	seedMath(t, p,
		mathProblem("m1", "中2", "一次関数", model.LevelStandard),
		mathProblem("m2", "中2", "一次関数", model.LevelStandard),
		mathProblem("m3", "中1", "方程式", model.LevelBasic),
	)
	seedEnglish(t, p, englishProblem("apple", "中1", model.LevelBasic))

	s := p.Summary()

	assert.Equal(t, 4, s.TotalProblems)
	assert.Equal(t, 3, s.BySubject[model.SubjectMath])
	assert.Equal(t, 1, s.BySubject[model.SubjectEnglish])
	assert.Equal(t, map[string]int{"中1": 2, "中2": 2}, s.ByGrade)
	assert.Equal(t, map[string]int{model.LevelBasic: 2, model.LevelStandard: 2}, s.ByLevel)
	assert.Equal(t, map[string]int{"一次関数": 2, "方程式": 1}, s.ByUnit)
	assert.NotEmpty(t, s.LastUpdated)

	require.Len(t, s.Available, 3, "空のバケットは含まれない")
	assert.Equal(t, Combination{Subject: model.SubjectEnglish, Grade: "中1", Level: model.LevelBasic, Count: 1}, s.Available[0])
}

func TestPool_Summary_Empty(t *testing.T) {
	p := newTestPool(t)

	s := p.Summary()

	assert.Equal(t, 0, s.TotalProblems)
	assert.NotNil(t, s.Available)
	assert.Empty(t, s.Available)
	assert.Equal(t, 0, s.BySubject[model.SubjectMath])
}

func TestPool_SearchMath(t *testing.T) {
	p := newTestPool(t)
	seedMath(t, p,
		model.MathProblem{ID: "s1", Grade: "中2", Unit: "一次関数", Level: model.LevelStandard, Problem: "傾きを求めよ", Answer: "2"},
		model.MathProblem{ID: "s2", Grade: "中2", Unit: "一次関数", Level: model.LevelBasic, Problem: "切片を求めよ", Answer: "1"},
		model.MathProblem{ID: "s3", Grade: "中1", Unit: "方程式", Level: model.LevelBasic, Problem: "xを求めよ", Answer: "3"},
	)

	tests := []struct {
		name    string
		filter  SearchFilter
		wantIDs []string
	}{
		{name: "条件なし", filter: SearchFilter{}, wantIDs: []string{"s3", "s2", "s1"}},
		{name: "学年", filter: SearchFilter{Grade: "中2"}, wantIDs: []string{"s2", "s1"}},
		{name: "学年と難易度", filter: SearchFilter{Grade: "中2", Level: model.LevelStandard}, wantIDs: []string{"s1"}},
		{name: "全分野は単元条件なし", filter: SearchFilter{Grade: "中2", Unit: model.AllUnits}, wantIDs: []string{"s2", "s1"}},
		{name: "キーワード", filter: SearchFilter{Keyword: "切片"}, wantIDs: []string{"s2"}},
		{name: "全角キーワード", filter: SearchFilter{Keyword: "Ｘを"}, wantIDs: []string{"s3"}},
		{name: "件数制限", filter: SearchFilter{Limit: 1}, wantIDs: []string{"s3"}},
		{name: "該当なし", filter: SearchFilter{Unit: "確率"}, wantIDs: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := p.SearchMath(tt.filter)

			ids := make([]string, 0, len(results))
			for _, r := range results {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestPool_SearchMath_LimitCap(t *testing.T) {
	p := newTestPool(t)
	problems := make([]model.MathProblem, 0, MaxSearchLimit+5)
	for i := 0; i < MaxSearchLimit+5; i++ {
		problems = append(problems, mathProblem(fmt.Sprintf("m%03d", i), "中1", "方程式", model.LevelBasic))
	}
	results := p.InsertMathBatch(problems)
	require.True(t, results[0].Success)

	assert.Len(t, p.SearchMath(SearchFilter{Limit: 1000}), MaxSearchLimit)
	assert.Len(t, p.SearchMath(SearchFilter{}), DefaultSearchLimit)
}
