package assess

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/utils/num"
)

func TestExtractWellFormedResponse(t *testing.T) {
	raw := `评分: 8

核心判断: 业绩超预期，强烈利好短期股价。

因果链: 营收超预期 → 上调全年指引 → 机构加仓

估值视角: 估值偏高但成长性可消化。

风险提示: 宏观需求转弱。

操作建议: 持有者继续持有，观望者回调介入。`

	a := Extract(raw)

	assert.Equal(t, 8, a.Score)
	assert.Equal(t, "业绩超预期，强烈利好短期股价。", a.Judgment)
	assert.Equal(t, "营收超预期 → 上调全年指引 → 机构加仓", a.CausalChain)
	assert.Equal(t, "估值偏高但成长性可消化。", a.Valuation)
	assert.Equal(t, "宏观需求转弱。", a.Risk)
	assert.Equal(t, "持有者继续持有，观望者回调介入。", a.Recommendation)
	assert.False(t, a.Defaulted)
}

func TestExtractLabelAliases(t *testing.T) {
	// Models drift from the requested labels; aliases still parse.
	raw := "分数: 9\n观点: 强烈利好"

	a := Extract(raw)

	assert.Equal(t, 9, a.Score)
	assert.Equal(t, "强烈利好", a.Judgment)
	// Unmatched fields keep their own defaults.
	assert.Equal(t, defaultCausalChain, a.CausalChain)
	assert.False(t, a.Defaulted)
}

func TestExtractMarkdownAndFullWidthColon(t *testing.T) {
	raw := "**评分**：7\n**核心判断**：温和利好，关注持续性。"

	a := Extract(raw)

	assert.Equal(t, 7, a.Score)
	assert.Equal(t, "温和利好，关注持续性。", a.Judgment)
}

func TestExtractClampsScore(t *testing.T) {
	a := Extract("评分: 15")
	assert.Equal(t, entity.MaxScore, a.Score)

	a = Extract("评分: 0")
	assert.Equal(t, entity.MinScore, a.Score)
}

func TestExtractTruncatesLongFields(t *testing.T) {
	long := strings.Repeat("判", 80)
	a := Extract("核心判断: " + long)

	assert.Equal(t, strings.Repeat("判", 40), a.Judgment)
}

func TestExtractGarbageIsDefaulted(t *testing.T) {
	a := Extract("I'm sorry, I cannot help with that request.")

	assert.True(t, a.Defaulted)
	assert.Equal(t, entity.NeutralScore, a.Score)
	assert.Equal(t, defaultJudgment, a.Judgment)
	assert.Equal(t, defaultRecommendation, a.Recommendation)
}

func TestFailureAssessment(t *testing.T) {
	a := FailureAssessment()

	assert.True(t, a.Defaulted)
	assert.Equal(t, entity.NeutralScore, a.Score)
	assert.Equal(t, failedJudgment, a.Judgment)
	assert.Equal(t, failedCausalChain, a.CausalChain)
}

type stubAnalyst struct {
	response string
	err      error
}

func (s *stubAnalyst) Name() string { return "stub" }

func (s *stubAnalyst) Analyze(_ context.Context, _ string) (string, error) {
	return s.response, s.err
}

func TestAssessBackendFailureDegrades(t *testing.T) {
	assessor := NewAssessor(&stubAnalyst{err: errors.New("quota exceeded")})

	a := assessor.Assess(context.Background(), "Tesla beats estimates", "TSLA",
		entity.MarketSnapshot{}, entity.DerivedMetrics{})

	assert.True(t, a.Defaulted)
	assert.Equal(t, entity.NeutralScore, a.Score)
	assert.Equal(t, failedJudgment, a.Judgment)
}

func TestAssessParsesBackendResponse(t *testing.T) {
	assessor := NewAssessor(&stubAnalyst{response: "评分: 3\n核心判断: 利空，监管风险上升。"})

	a := assessor.Assess(context.Background(), "SEC probes Tesla", "TSLA",
		entity.MarketSnapshot{}, entity.DerivedMetrics{})

	assert.Equal(t, 3, a.Score)
	assert.Equal(t, "利空，监管风险上升。", a.Judgment)
	assert.False(t, a.Defaulted)
}

func TestBuildPromptOmitsAbsentFields(t *testing.T) {
	prompt := BuildPrompt("Tesla beats estimates", "TSLA",
		entity.MarketSnapshot{}, entity.DerivedMetrics{})

	assert.Contains(t, prompt, "股票: TSLA")
	assert.Contains(t, prompt, "Tesla beats estimates")
	assert.NotContains(t, prompt, "N/A")
	assert.NotContains(t, prompt, "价格:")
	assert.NotContains(t, prompt, "P/E:")
}

func TestBuildPromptIncludesFetchedFields(t *testing.T) {
	consensus := entity.NewAnalystConsensus(30, 8, 2)
	snap := entity.MarketSnapshot{
		Quote: entity.NewQuote("NVDA", 104.5, 100, nil, nil),
		Fundamentals: &entity.Fundamentals{
			Symbol:     "NVDA",
			Sector:     "Technology",
			TrailingPE: num.Ptr(65.4),
		},
		Consensus: &consensus,
	}
	derived := entity.DerivedMetrics{
		SectorPEPremiumPct: num.Ptr(118.0),
		TargetUpsidePct:    num.Ptr(38.0),
		RangePositionPct:   num.Ptr(64.0),
	}

	prompt := BuildPrompt("NVIDIA surges", "NVDA", snap, derived)

	require.Contains(t, prompt, "价格: $104.50 (+4.50%)")
	assert.Contains(t, prompt, "P/E: 65.4")
	assert.Contains(t, prompt, "行业: Technology")
	assert.Contains(t, prompt, "估值溢价: +118.0% vs 行业")
	assert.Contains(t, prompt, "分析师: 30买/8持有/2卖出")
	assert.Contains(t, prompt, "目标价上涨空间: +38.0%")
	assert.Contains(t, prompt, "52周位置: 64%")
}
