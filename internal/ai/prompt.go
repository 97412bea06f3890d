package ai

import (
	"fmt"
	"strings"

	"github.com/kyiku/caritas-study-back/internal/model"
)

const jsonOnly = "DO NOT OUTPUT ANYTHING OTHER THAN VALID JSON."

const mathStepsTemplate = `  "steps": [
    {
      "step": "問題理解・条件整理",
      "content": "問題文から読み取れる情報を整理し、求めるものを明確にする",
      "explanation": "その情報が重要な理由と問題の解釈",
      "detail": "見落としがちなポイント"
    },
    {
      "step": "解法の選択と方針決定",
      "content": "最適な解法を選び、方針を決める",
      "explanation": "解法選択の根拠",
      "detail": "迷いやすい点と効率的な解き方"
    },
    {
      "step": "計算過程",
      "content": "一行一行の計算を省略せずに示す",
      "explanation": "各変形の理由",
      "detail": "計算ミスを防ぐコツ"
    },
    {
      "step": "検算と解の妥当性確認",
      "content": "答えが条件を満たすか確認する",
      "explanation": "検算の手順",
      "detail": "解の範囲や単位の確認"
    }
  ],`

func unitLabel(unit string) string {
	if unit == model.AllUnits || unit == "" {
		return "該当学年の全分野から選択"
	}
	return unit
}

// MathPrompt builds the single math problem prompt.
func MathPrompt(grade, unit, level string) string {
	var b strings.Builder
	b.WriteString("カリタス中学校の体系数学に準拠した数学問題を1問作成してください。\n\n")
	fmt.Fprintf(&b, "設定:\n- 学年: %s\n- 分野: %s\n- 難易度: %s\n\n", grade, unitLabel(unit), level)
	fmt.Fprintf(&b, "条件:\n1. %sレベルに適した問題\n2. 思考力を要する良質な問題\n", grade)
	b.WriteString("3. 解説は省略せず、中学生が理解できるよう手順を丁寧に説明する\n\n")
	b.WriteString("回答は以下のJSON形式で出力してください:\n{\n")
	fmt.Fprintf(&b, "  \"grade\": %q,\n  \"level\": %q,\n", grade, level)
	b.WriteString("  \"unit\": \"実際に選択した具体的な単元名\",\n")
	b.WriteString("  \"problem\": \"問題文（数式含む）\",\n")
	b.WriteString(mathStepsTemplate + "\n")
	b.WriteString("  \"answer\": \"最終的な答え\",\n")
	b.WriteString("  \"hint\": \"困ったときのヒント\",\n")
	b.WriteString("  \"difficulty_analysis\": \"この問題の難しさの分析\",\n")
	b.WriteString("  \"learning_point\": \"この問題で身につく学習内容\"\n}\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// MathBatchPrompt builds a prompt asking for count problems at once.
func MathBatchPrompt(grade, unit, level string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "カリタス中学校の体系数学に準拠した数学問題を%d問作成してください。\n\n", count)
	fmt.Fprintf(&b, "設定:\n- 学年: %s\n- 分野: %s\n- 難易度: %s\n\n", grade, unitLabel(unit), level)
	b.WriteString("条件:\n1. 問題同士の内容が重複しないこと\n2. 各問題の解説は手順ごとに丁寧に書くこと\n\n")
	b.WriteString("回答は以下のJSON形式で出力してください:\n{\n  \"problems\": [\n    {\n")
	fmt.Fprintf(&b, "      \"grade\": %q,\n      \"level\": %q,\n", grade, level)
	b.WriteString("      \"unit\": \"具体的な単元名\",\n")
	b.WriteString("      \"problem\": \"問題文\",\n")
	b.WriteString("      \"steps\": [{\"step\": \"手順名\", \"content\": \"内容\", \"explanation\": \"説明\"}],\n")
	b.WriteString("      \"answer\": \"最終的な答え\",\n")
	b.WriteString("      \"hint\": \"ヒント\"\n    }\n  ]\n}\n\n")
	b.WriteString(jsonOnly)
	return b.String()
}

// EnglishQuizPrompt builds a four-choice vocabulary prompt.
func EnglishQuizPrompt(grade, level string) string {
	var b strings.Builder
	b.WriteString("中学生向けの英単語4択問題を1問作成してください。\n\n")
	fmt.Fprintf(&b, "設定:\n- 学年: %s\n- 難易度: %s\n\n", grade, level)
	b.WriteString("条件:\n1. 誤答選択肢は3つ、紛らわしいが明確に誤りであること\n2. 例文には日本語訳を付けること\n\n")
	b.WriteString(englishQuizShape("", grade, level))
	b.WriteString("\n\n" + jsonOnly)
	return b.String()
}

// EnglishQuizBatchPrompt builds a prompt asking for count quiz items.
func EnglishQuizBatchPrompt(grade, level string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "中学生向けの英単語4択問題を%d問作成してください。\n\n", count)
	fmt.Fprintf(&b, "設定:\n- 学年: %s\n- 難易度: %s\n\n", grade, level)
	b.WriteString("条件:\n1. 同じ単語を繰り返さないこと\n2. 誤答選択肢は各問題3つ\n\n")
	b.WriteString("回答は以下のJSON形式で出力してください:\n{\n  \"problems\": [\n")
	b.WriteString(englishQuizShape("    ", grade, level))
	b.WriteString("\n  ]\n}\n\n" + jsonOnly)
	return b.String()
}

func englishQuizShape(indent, grade, level string) string {
	lines := []string{
		"{",
		"  \"word\": \"英単語\",",
		"  \"pronunciation\": \"発音記号\",",
		fmt.Sprintf("  \"grade\": %q,", grade),
		fmt.Sprintf("  \"level\": %q,", level),
		"  \"correct_meaning\": \"正しい意味\",",
		"  \"wrong_options\": [\"誤答1\", \"誤答2\", \"誤答3\"],",
		"  \"explanation\": \"意味と使い方の解説\",",
		"  \"examples\": [{\"sentence\": \"例文\", \"translation\": \"日本語訳\"}]",
		"}",
	}
	if indent == "" {
		return "回答は以下のJSON形式で出力してください:\n" + strings.Join(lines, "\n")
	}
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}
