package assess

import (
	"fmt"
	"strings"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
)

// BuildPrompt renders the analysis prompt for one news item. The data
// context includes only the fields that were actually fetched; absent
// fields are omitted entirely rather than rendered as placeholders, so
// the model never reasons about "N/A".
func BuildPrompt(title, symbol string, snap entity.MarketSnapshot, derived entity.DerivedMetrics) string {
	ctx := []string{fmt.Sprintf("股票: %s", symbol)}

	if q := snap.Quote; q != nil {
		ctx = append(ctx, fmt.Sprintf("价格: $%.2f (%+.2f%%)", q.Price, q.ChangePct))
	}
	if f := snap.Fundamentals; f != nil {
		if f.TrailingPE != nil {
			ctx = append(ctx, fmt.Sprintf("P/E: %.1f", *f.TrailingPE))
		}
		if f.Sector != "" && f.Sector != "Unknown" {
			ctx = append(ctx, fmt.Sprintf("行业: %s", f.Sector))
		}
	}
	if derived.SectorPEPremiumPct != nil {
		ctx = append(ctx, fmt.Sprintf("估值溢价: %+.1f%% vs 行业", *derived.SectorPEPremiumPct))
	}
	if c := snap.Consensus; c != nil && c.Label != entity.ConsensusNone {
		ctx = append(ctx, fmt.Sprintf("分析师: %d买/%d持有/%d卖出", c.Buy, c.Hold, c.Sell))
	}
	if derived.TargetUpsidePct != nil {
		ctx = append(ctx, fmt.Sprintf("目标价上涨空间: %+.1f%%", *derived.TargetUpsidePct))
	}
	if derived.RangePositionPct != nil {
		ctx = append(ctx, fmt.Sprintf("52周位置: %.0f%%", *derived.RangePositionPct))
	}
	if derived.MADeviationPct != nil {
		ctx = append(ctx, fmt.Sprintf("均线偏离: %+.1f%%", *derived.MADeviationPct))
	}

	var b strings.Builder
	b.WriteString("你是 Citadel 首席宏观策略师，同时拥有沃顿商学院金融学博士学位。\n")
	b.WriteString("你的分析以\"穿透本质、冷峻专业、逻辑严密\"著称。\n\n")
	b.WriteString("【新闻标题】\n")
	b.WriteString(title)
	b.WriteString("\n\n【量化数据】\n")
	b.WriteString(strings.Join(ctx, "\n"))
	b.WriteString("\n\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString("请严格按以下格式输出（每项必填，中文回答）：\n\n")
	b.WriteString("评分: [1-10的整数，1=极度利空，5=中性，10=极度利好]\n\n")
	b.WriteString("核心判断: [一句话，说明利好/利空及影响程度，15-25字]\n\n")
	b.WriteString("因果链: [用\"A → B → C\"格式，说明因果逻辑，25-40字]\n\n")
	b.WriteString("估值视角: [结合P/E和目标价，判断是否已Price In，15-25字]\n\n")
	b.WriteString("风险提示: [最大的不确定性是什么，15-20字]\n\n")
	b.WriteString("操作建议: [对持有者和观望者的建议，15-25字]\n")
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	b.WriteString("要求：\n")
	b.WriteString("1. 必须有具体逻辑推理，不说空话套话\n")
	b.WriteString("2. 每句话必须完整，不能截断\n")
	b.WriteString("3. 结合量化数据进行分析\n")
	b.WriteString("4. 如果数据不足，基于新闻内容合理推断\n")
	return b.String()
}
