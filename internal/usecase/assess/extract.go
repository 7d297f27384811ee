package assess

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/utils/text"
)

// Parse-time defaults, used per field when the response lacks its label.
const (
	defaultJudgment       = "影响中性，需持续观察。"
	defaultCausalChain    = "信息有限 → 市场观望 → 短期波动有限"
	defaultValuation      = "当前估值合理，无明显偏离。"
	defaultRisk           = "需关注后续发展。"
	defaultRecommendation = "观望为主，等待更多信息。"
)

// Failure defaults, used wholesale when the backend call itself fails.
const (
	failedJudgment       = "分析暂不可用。"
	failedCausalChain    = "系统繁忙，请稍后再试。"
	failedValuation      = "数据不足。"
	failedRisk           = "无法评估。"
	failedRecommendation = "暂不操作。"
)

// scorePattern tolerates label aliases, markdown bold and full-width
// colons, all of which the models emit despite the format instructions.
var scorePattern = regexp.MustCompile(`\*{0,2}(?:评分|分数)\*{0,2}\s*[:：]\s*(\d+)`)

// textField describes one extractable free-text field.
type textField struct {
	pattern      *regexp.Regexp
	maxRunes     int
	defaultValue string
	assign       func(*entity.AIAssessment, string)
}

func fieldPattern(labels string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^\s*\*{0,2}(?:` + labels + `)\*{0,2}\s*[:：]\s*(.+)$`)
}

var textFields = []textField{
	{
		pattern:      fieldPattern(`核心判断|观点`),
		maxRunes:     40,
		defaultValue: defaultJudgment,
		assign:       func(a *entity.AIAssessment, v string) { a.Judgment = v },
	},
	{
		pattern:      fieldPattern(`因果链`),
		maxRunes:     60,
		defaultValue: defaultCausalChain,
		assign:       func(a *entity.AIAssessment, v string) { a.CausalChain = v },
	},
	{
		pattern:      fieldPattern(`估值视角|估值`),
		maxRunes:     40,
		defaultValue: defaultValuation,
		assign:       func(a *entity.AIAssessment, v string) { a.Valuation = v },
	},
	{
		pattern:      fieldPattern(`风险提示|风险`),
		maxRunes:     30,
		defaultValue: defaultRisk,
		assign:       func(a *entity.AIAssessment, v string) { a.Risk = v },
	},
	{
		pattern:      fieldPattern(`操作建议|建议`),
		maxRunes:     40,
		defaultValue: defaultRecommendation,
		assign:       func(a *entity.AIAssessment, v string) { a.Recommendation = v },
	},
}

// Extract parses the raw model response into an assessment. Each field is
// extracted independently and falls back to its own default when missing,
// so a partially malformed response still yields a usable result. The
// Defaulted flag is set only when nothing at all could be extracted.
func Extract(raw string) entity.AIAssessment {
	a := entity.AIAssessment{
		Score:          entity.NeutralScore,
		Judgment:       defaultJudgment,
		CausalChain:    defaultCausalChain,
		Valuation:      defaultValuation,
		Risk:           defaultRisk,
		Recommendation: defaultRecommendation,
	}

	matched := false
	if m := scorePattern.FindStringSubmatch(raw); m != nil {
		if score, err := strconv.Atoi(m[1]); err == nil {
			a.Score = entity.ClampScore(score)
			matched = true
		}
	}

	for _, f := range textFields {
		m := f.pattern.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			continue
		}
		f.assign(&a, text.TruncateRunes(value, f.maxRunes, ""))
		matched = true
	}

	a.Defaulted = !matched
	return a
}

// FailureAssessment is the assessment used when the backend call fails.
func FailureAssessment() entity.AIAssessment {
	return entity.AIAssessment{
		Score:          entity.NeutralScore,
		Judgment:       failedJudgment,
		CausalChain:    failedCausalChain,
		Valuation:      failedValuation,
		Risk:           failedRisk,
		Recommendation: failedRecommendation,
		Defaulted:      true,
	}
}
