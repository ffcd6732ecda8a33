package delivery

import (
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/rng"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// Checkpoints 配送进度上的事件检查点
var Checkpoints = []float64{0.20, 0.40, 0.60}

// 事件参数
const (
	MaxEventsPerRestaurant = 3
	DefaultEventChance     = 0.35

	basePositiveChance = 0.6
	maxPositiveChance  = 0.95
	positiveImpactMin  = 0.05
	positiveImpactMax  = 0.20
	negativeImpactMin  = 0.05
	negativeImpactMax  = 0.15
)

// EventKind 事件类型
type EventKind string

// 事件类型，按影响大小区分
const (
	EventRushHour     EventKind = "rush_hour"
	EventGoodReview   EventKind = "good_review"
	EventSmoothRoute  EventKind = "smooth_route"
	EventLateRider    EventKind = "late_rider"
	EventSpilledBroth EventKind = "spilled_broth"
	EventTrafficJam   EventKind = "traffic_jam"
)

// Event 配送途中的随机事件
type Event struct {
	RestaurantID string    `json:"restaurant_id"`
	Progress     float64   `json:"progress"`
	Kind         EventKind `json:"kind"`
	Positive     bool      `json:"positive"`
	Impact       float64   `json:"impact"` // 占预测利润的比例，负面事件为负数
	Amount       int64     `json:"amount"` // round(forecast × impact)
}

// RestaurantResult 单店配送结果
type RestaurantResult struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ForecastedProfit int64   `json:"forecasted_profit"`
	ActualProfit     int64   `json:"actual_profit"`
	Events           []Event `json:"events"`
}

// Result 一次配送的完整结果
type Result struct {
	RunID          string             `json:"run_id"`
	Period         int                `json:"period"`
	Restaurants    []RestaurantResult `json:"restaurants"`
	TotalForecast  int64              `json:"total_forecast"`
	TotalProfit    int64              `json:"total_profit"`
	PositiveEvents int                `json:"positive_events"`
	NegativeEvents int                `json:"negative_events"`
	SimulatedAt    time.Time          `json:"simulated_at"`
}

// EventCount 事件总数
func (r *Result) EventCount() int {
	return r.PositiveEvents + r.NegativeEvents
}

// Simulator 配送模拟器。决策逻辑是同步的纯函数（给定随机源），可瞬间跑完整个周期。
type Simulator struct {
	rng         rng.RandomGenerator
	eventChance float64
	logger      *zap.Logger
}

// Option 模拟器选项
type Option func(*Simulator)

// WithEventChance 设置每个检查点触发事件的概率
func WithEventChance(p float64) Option {
	return func(s *Simulator) {
		if p >= 0 && p <= 1 {
			s.eventChance = p
		}
	}
}

// WithLogger 设置日志器
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulator) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSimulator 创建模拟器，随机源为 nil 时使用按时间播种的生成器
func NewSimulator(g rng.RandomGenerator, opts ...Option) *Simulator {
	if g == nil {
		g = rng.NewSeededRandomGenerator(0)
	}
	s := &Simulator{
		rng:         g,
		eventChance: DefaultEventChance,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PositiveChance 正面事件概率：基础 0.6 加上配送顺畅增益，最高 0.95
func PositiveChance(buffs []state.Buff) float64 {
	p := basePositiveChance + buff.Value(buffs, buff.DeliveryFlow)/100
	return math.Min(p, maxPositiveChance)
}

// EventAmount 单个事件的货币影响，按检查点取整
func EventAmount(forecast int64, impact float64) int64 {
	return int64(math.Round(float64(forecast) * impact))
}

// Checkpoint 在某一检查点决定是否发生事件。emitted 为该店已发生的事件数，达到上限时不再抽取。
// 抽取顺序固定：是否发生、正负、幅度。
func (s *Simulator) Checkpoint(r RestaurantSnapshot, progress float64, buffs []state.Buff, emitted int) (Event, bool) {
	if emitted >= MaxEventsPerRestaurant {
		return Event{}, false
	}
	if !rng.Chance(s.rng, s.eventChance) {
		return Event{}, false
	}

	positive := rng.Chance(s.rng, PositiveChance(buffs))

	var impact float64
	if positive {
		impact = rng.Uniform(s.rng, positiveImpactMin, positiveImpactMax)
	} else {
		impact = -rng.Uniform(s.rng, negativeImpactMin, negativeImpactMax)
		if flow, ok := buff.Active(buffs, buff.DeliveryFlow); ok && flow.Special == buff.SpecialPenaltyReduction {
			impact *= 1 - flow.Value/100
		}
	}

	return Event{
		RestaurantID: r.ID,
		Progress:     progress,
		Kind:         kindFor(positive, impact),
		Positive:     positive,
		Impact:       impact,
		Amount:       EventAmount(r.ForecastedProfit, impact),
	}, true
}

func kindFor(positive bool, impact float64) EventKind {
	magnitude := math.Abs(impact)
	if positive {
		switch {
		case magnitude >= 0.15:
			return EventRushHour
		case magnitude >= 0.10:
			return EventGoodReview
		default:
			return EventSmoothRoute
		}
	}
	switch {
	case magnitude >= 0.10:
		return EventTrafficJam
	case magnitude >= 0.075:
		return EventSpilledBroth
	default:
		return EventLateRider
	}
}

// RunRestaurant 跑完单店所有检查点
func (s *Simulator) RunRestaurant(r RestaurantSnapshot, buffs []state.Buff) RestaurantResult {
	res := RestaurantResult{
		ID:               r.ID,
		Name:             r.Name,
		ForecastedProfit: r.ForecastedProfit,
		ActualProfit:     r.ForecastedProfit,
		Events:           []Event{},
	}
	for _, progress := range Checkpoints {
		ev, ok := s.Checkpoint(r, progress, buffs, len(res.Events))
		if !ok {
			continue
		}
		res.Events = append(res.Events, ev)
		res.ActualProfit += ev.Amount
	}
	return res
}

// Run 瞬间跑完整个快照
func (s *Simulator) Run(snapshot Snapshot) *Result {
	result := &Result{
		RunID:       uuid.NewString(),
		Period:      snapshot.Period,
		Restaurants: make([]RestaurantResult, 0, len(snapshot.Restaurants)),
		SimulatedAt: time.Now(),
	}

	for _, r := range snapshot.Restaurants {
		rr := s.RunRestaurant(r, snapshot.Buffs)
		for _, ev := range rr.Events {
			if ev.Positive {
				result.PositiveEvents++
			} else {
				result.NegativeEvents++
			}
		}
		result.TotalForecast += rr.ForecastedProfit
		result.TotalProfit += rr.ActualProfit
		result.Restaurants = append(result.Restaurants, rr)
	}

	s.logger.Debug("配送模拟完成",
		zap.String("run_id", result.RunID),
		zap.Int("period", result.Period),
		zap.Int("restaurants", len(result.Restaurants)),
		zap.Int("events", result.EventCount()),
		zap.Int64("forecast", result.TotalForecast),
		zap.Int64("profit", result.TotalProfit))

	return result
}
