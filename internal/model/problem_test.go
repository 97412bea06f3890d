package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolDocument(t *testing.T) {
	doc := NewPoolDocument()

	assert.NotNil(t, doc.Math)
	assert.NotNil(t, doc.English)
	assert.NotNil(t, doc.Stats.ProblemsByGrade)
	assert.Equal(t, 0, doc.Stats.TotalProblems)
}

func TestPoolDocument_EnsureMathBucket(t *testing.T) {
	doc := NewPoolDocument()

	doc.EnsureMathBucket("中2", "一次関数")

	levels, ok := doc.Math["中2"]["一次関数"]
	require.True(t, ok)
	assert.Len(t, levels, 4, "4つの難易度バケットが作成されるべき")
	for _, lv := range Levels {
		bucket, ok := levels[lv]
		assert.True(t, ok, lv)
		assert.NotNil(t, bucket, "空配列として作成されるべき")
		assert.Empty(t, bucket)
	}
}

func TestPoolDocument_EnsureMathBucket_KeepsExisting(t *testing.T) {
	doc := NewPoolDocument()
	doc.EnsureMathBucket("中2", "一次関数")
	doc.Math["中2"]["一次関数"][LevelStandard] = append(doc.Math["中2"]["一次関数"][LevelStandard], MathProblem{ID: "m1"})

	doc.EnsureMathBucket("中2", "一次関数")

	assert.Len(t, doc.Math["中2"]["一次関数"][LevelStandard], 1)
}

func TestPoolDocument_EnsureEnglishBucket(t *testing.T) {
	doc := &PoolDocument{}

	doc.EnsureEnglishBucket("中1")

	levels := doc.English["中1"]
	assert.Len(t, levels, 4)
	assert.NotNil(t, doc.Math, "nilマップは補完されるべき")
}

func TestPoolDocument_Buckets(t *testing.T) {
	doc := NewPoolDocument()
	doc.EnsureMathBucket("中2", "一次関数")
	doc.EnsureEnglishBucket("中1")
	doc.Math["中2"]["一次関数"][LevelBasic] = []MathProblem{{ID: "a"}, {ID: "b"}}
	doc.English["中1"][LevelExpert] = []EnglishProblem{{Word: "apple"}}

	buckets := doc.Buckets()

	assert.Len(t, buckets, 8)
	assert.Equal(t, SubjectEnglish, buckets[0].Subject, "englishが先にソートされる")

	counts := map[BucketKey]int{}
	for _, b := range buckets {
		counts[b.BucketKey] = b.Count
	}
	assert.Equal(t, 2, counts[BucketKey{Subject: SubjectMath, Grade: "中2", Unit: "一次関数", Level: LevelBasic}])
	assert.Equal(t, 1, counts[BucketKey{Subject: SubjectEnglish, Grade: "中1", Level: LevelExpert}])
}

func TestPoolDocument_RecountStats(t *testing.T) {
	doc := NewPoolDocument()
	doc.EnsureMathBucket("中2", "一次関数")
	doc.EnsureEnglishBucket("中2")
	doc.EnsureEnglishBucket("中1")
	doc.Math["中2"]["一次関数"][LevelBasic] = []MathProblem{{ID: "a"}, {ID: "b"}}
	doc.English["中2"][LevelBasic] = []EnglishProblem{{Word: "apple"}}
	doc.Stats.TotalProblems = 99

	doc.RecountStats()

	assert.Equal(t, 3, doc.Stats.TotalProblems)
	assert.Equal(t, map[string]int{"中2": 3}, doc.Stats.ProblemsByGrade)
}

func TestAnswer_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Answer
		wantErr bool
	}{
		{name: "文字列", input: `{"answer":"x = 3"}`, want: "x = 3"},
		{name: "整数", input: `{"answer":2}`, want: "2"},
		{name: "小数", input: `{"answer":-0.25}`, want: "-0.25"},
		{name: "null", input: `{"answer":null}`, want: ""},
		{name: "真偽値はエラー", input: `{"answer":true}`, wantErr: true},
		{name: "配列はエラー", input: `{"answer":[1,2]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p MathProblem
			err := json.Unmarshal([]byte(tt.input), &p)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Answer)
		})
	}
}

func TestAnswer_MarshalsAsString(t *testing.T) {
	data, err := json.Marshal(MathProblem{ID: "m1", Answer: "2"})

	require.NoError(t, err)
	assert.Contains(t, string(data), `"answer":"2"`)
}
