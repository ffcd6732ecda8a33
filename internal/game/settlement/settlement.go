package settlement

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/delivery"
	"github.com/wfunc/noodle-rush/internal/game/rank"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// 倦怠值基础变化
const (
	BurnoutOnImprove = -10
	BurnoutOnWorsen  = 30
	BurnoutOnSteady  = 5
)

// Outcome 结算结果
type Outcome struct {
	RunID              string `json:"run_id"`
	Period             int    `json:"period"`
	TotalProfit        int64  `json:"total_profit"`
	RankBefore         int    `json:"rank_before"`
	RankAfter          int    `json:"rank_after"`
	RankDelta          int    `json:"rank_delta"` // 正数表示排名上升
	RankTitle          string `json:"rank_title"`
	BurnoutBefore      int    `json:"burnout_before"`
	BurnoutAfter       int    `json:"burnout_after"`
	BurnoutDelta       int    `json:"burnout_delta"` // 增益修正后、限幅前
	TotalBalanceBefore int64  `json:"total_balance_before"`
	NewTotalBalance    int64  `json:"new_total_balance"`
	NewFunds           int64  `json:"new_funds"`
	GameOver           bool   `json:"game_over"`
}

// BurnoutDelta 计算倦怠值变化：排名上升 −10（优先判断），排名下降或亏损 +30，其余 +5。
// 心智清明增益按百分比缩小变化幅度，向零取整。
func BurnoutDelta(rankBefore, rankAfter int, totalProfit int64, buffs []state.Buff) int {
	var delta int
	switch {
	case rankAfter < rankBefore:
		delta = BurnoutOnImprove
	case rankAfter > rankBefore || totalProfit < 0:
		delta = BurnoutOnWorsen
	default:
		delta = BurnoutOnSteady
	}

	if v := buff.Value(buffs, buff.MentalClarity); v > 0 {
		delta = int(math.Trunc(float64(delta) * (1 - v/100)))
	}
	return delta
}

// Compute 预览结算结果，不修改文档
func Compute(doc *state.Document, result *delivery.Result, table *rank.Table) Outcome {
	return Apply(doc.Clone(), result, table)
}

// Apply 将配送结果写入文档：资金、累计余额、排名、倦怠值、历史与统计
func Apply(doc *state.Document, result *delivery.Result, table *rank.Table) Outcome {
	profit := result.TotalProfit
	out := Outcome{
		RunID:              result.RunID,
		Period:             doc.GameProgress.CurrentPeriod,
		TotalProfit:        profit,
		RankBefore:         doc.GameProgress.BusinessRank,
		BurnoutBefore:      doc.PlayerStats.Burnout,
		TotalBalanceBefore: doc.Finances.TotalBalance,
	}

	if profit >= 0 {
		doc.AddIncome(profit, state.SourceDeliveryRun)
	} else {
		doc.AddExpense(-profit, state.SourceDeliveryRun)
	}

	// 亏损不减少累计余额
	if profit > 0 {
		doc.Finances.TotalBalance += profit
	}

	looked := state.ClampRank(table.Lookup(doc.Finances.TotalBalance))
	delta := rank.ClampDelta(out.RankBefore - looked)
	rankAfter := state.ClampRank(out.RankBefore - delta)
	doc.GameProgress.BusinessRank = rankAfter
	doc.GameProgress.RankHistory = append(doc.GameProgress.RankHistory, state.RankEntry{
		Period: out.Period,
		Rank:   rankAfter,
	})

	burnoutDelta := BurnoutDelta(out.RankBefore, rankAfter, profit, doc.Buffs.Active)
	doc.PlayerStats.Burnout = state.ClampBurnout(doc.PlayerStats.Burnout + burnoutDelta)
	doc.PlayerStats.BurnoutHistory = append(doc.PlayerStats.BurnoutHistory, state.BurnoutEntry{
		Period:  out.Period,
		Burnout: doc.PlayerStats.Burnout,
	})

	doc.Statistics.DeliveryRuns++
	doc.Statistics.PositiveEvents += result.PositiveEvents
	doc.Statistics.NegativeEvents += result.NegativeEvents

	out.RankAfter = rankAfter
	out.RankDelta = out.RankBefore - rankAfter
	out.RankTitle = table.Title(rankAfter)
	out.BurnoutDelta = burnoutDelta
	out.BurnoutAfter = doc.PlayerStats.Burnout
	out.NewTotalBalance = doc.Finances.TotalBalance
	out.NewFunds = doc.Finances.Funds
	out.GameOver = doc.IsGameOver()
	return out
}

// RunRecorder 配送记录落库
type RunRecorder interface {
	Record(ctx context.Context, result *delivery.Result, outcome Outcome) error
}

// Committer 以一次原子更新提交配送结果
type Committer struct {
	store    *state.Store
	table    *rank.Table
	recorder RunRecorder
	logger   *zap.Logger
}

// NewCommitter 创建提交器，recorder 可为 nil
func NewCommitter(store *state.Store, table *rank.Table, recorder RunRecorder, logger *zap.Logger) *Committer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == nil {
		table = rank.NewTable()
	}
	return &Committer{
		store:    store,
		table:    table,
		recorder: recorder,
		logger:   logger,
	}
}

// Commit 提交配送结果。结果所属周期与当前周期不一致时拒绝，文档保持不变。
// 记录落库失败只记录警告。
func (c *Committer) Commit(ctx context.Context, result *delivery.Result) (Outcome, error) {
	if result == nil {
		return Outcome{}, errors.New(errors.ErrNoPendingResult)
	}

	var out Outcome
	_, err := c.store.Update(ctx, func(doc *state.Document) error {
		if result.Period != doc.GameProgress.CurrentPeriod {
			return errors.Newf(errors.ErrStaleResult, "结果周期 %d，当前周期 %d",
				result.Period, doc.GameProgress.CurrentPeriod)
		}
		out = Apply(doc, result, c.table)
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}

	c.logger.Info("配送结果已结算",
		zap.String("run_id", out.RunID),
		zap.Int("period", out.Period),
		zap.Int64("profit", out.TotalProfit),
		zap.Int("rank", out.RankAfter),
		zap.Int("rank_delta", out.RankDelta),
		zap.Int("burnout", out.BurnoutAfter))

	if c.recorder != nil {
		if err := c.recorder.Record(ctx, result, out); err != nil {
			c.logger.Warn("配送记录保存失败", zap.String("run_id", out.RunID), zap.Error(err))
		}
	}
	return out, nil
}
