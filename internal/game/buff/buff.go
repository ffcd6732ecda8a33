package buff

import (
	"math"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// 增益类型
const (
	DeliveryFlow  state.BuffType = "delivery_flow"  // 提高正面事件概率
	MentalClarity state.BuffType = "mental_clarity" // 降低倦怠值变化幅度
	Bargain       state.BuffType = "bargain"        // 购买、升级、培训折扣
	CrowdPull     state.BuffType = "crowd_pull"     // 提高销量
)

// SpecialPenaltyReduction 负面事件影响按增益值缩小
const SpecialPenaltyReduction = "penalty_reduction"

// Effect 某一等级的效果
type Effect struct {
	Level   int     `json:"level"`
	Value   float64 `json:"value"` // 百分比
	Special string  `json:"special,omitempty"`
}

// Definition 增益类型定义
type Definition struct {
	Type    state.BuffType `json:"type"`
	Name    string         `json:"name"`
	Effects []Effect       `json:"effects"` // 按等级升序，Effects[i].Level == i+1
}

// MaxLevel 最高等级
func (d Definition) MaxLevel() int {
	return len(d.Effects)
}

// Registry 增益目录：增益类型的分级效果以及知己到增益类型的映射，只读
type Registry struct {
	order      []state.BuffType
	defs       map[state.BuffType]Definition
	confidants map[string]state.BuffType
}

// NewRegistry 创建增益目录
func NewRegistry(defs []Definition, confidants map[string]state.BuffType) *Registry {
	r := &Registry{
		defs:       make(map[state.BuffType]Definition, len(defs)),
		confidants: make(map[string]state.BuffType, len(confidants)),
	}
	for _, d := range defs {
		if _, ok := r.defs[d.Type]; !ok {
			r.order = append(r.order, d.Type)
		}
		r.defs[d.Type] = d
	}
	for id, t := range confidants {
		r.confidants[id] = t
	}
	return r
}

// DefaultRegistry 默认增益目录
func DefaultRegistry() *Registry {
	return NewRegistry(defaultDefinitions, defaultConfidants)
}

var defaultDefinitions = []Definition{
	{
		Type: DeliveryFlow,
		Name: "Delivery Flow",
		Effects: []Effect{
			{Level: 1, Value: 5},
			{Level: 2, Value: 10},
			{Level: 3, Value: 15},
			{Level: 4, Value: 20, Special: SpecialPenaltyReduction},
			{Level: 5, Value: 25, Special: SpecialPenaltyReduction},
		},
	},
	{
		Type: MentalClarity,
		Name: "Mental Clarity",
		Effects: []Effect{
			{Level: 1, Value: 10},
			{Level: 2, Value: 20},
			{Level: 3, Value: 30},
			{Level: 4, Value: 40},
			{Level: 5, Value: 50},
		},
	},
	{
		Type: Bargain,
		Name: "Bargain",
		Effects: []Effect{
			{Level: 1, Value: 5},
			{Level: 2, Value: 10},
			{Level: 3, Value: 15},
			{Level: 4, Value: 20},
			{Level: 5, Value: 25},
		},
	},
	{
		Type: CrowdPull,
		Name: "Crowd Pull",
		Effects: []Effect{
			{Level: 1, Value: 5},
			{Level: 2, Value: 10},
			{Level: 3, Value: 15},
			{Level: 4, Value: 20},
			{Level: 5, Value: 30},
		},
	},
}

var defaultConfidants = map[string]state.BuffType{
	"chef_li":     DeliveryFlow,
	"zen_master":  MentalClarity,
	"merchant_wu": Bargain,
	"bartender":   CrowdPull,
	"coach":       MentalClarity,
	"scholar":     DeliveryFlow,
}

// Definition 返回增益类型定义
func (r *Registry) Definition(t state.BuffType) (Definition, bool) {
	d, ok := r.defs[t]
	return d, ok
}

// Types 按注册顺序返回所有增益类型
func (r *Registry) Types() []state.BuffType {
	out := make([]state.BuffType, len(r.order))
	copy(out, r.order)
	return out
}

// Effect 查找某类型某等级的效果。等级超过上限时取最高等级
func (r *Registry) Effect(t state.BuffType, level int) (Effect, bool) {
	d, ok := r.defs[t]
	if !ok || level < 1 || len(d.Effects) == 0 {
		return Effect{}, false
	}
	if level > len(d.Effects) {
		level = len(d.Effects)
	}
	return d.Effects[level-1], true
}

// TypeFor 返回知己关联的增益类型
func (r *Registry) TypeFor(confidantID string) (state.BuffType, bool) {
	t, ok := r.confidants[confidantID]
	return t, ok
}

// Source 知己来源标记
func Source(confidantID string) string {
	return "confidant:" + confidantID
}

// Apply 授予知己对应等级的增益：移除同类型已有增益，插入新增益
func (r *Registry) Apply(doc *state.Document, confidantID string, level int) (state.Buff, error) {
	t, ok := r.TypeFor(confidantID)
	if !ok {
		return state.Buff{}, errors.Newf(errors.ErrNotFound, "知己 %s 没有关联的增益", confidantID)
	}
	effect, ok := r.Effect(t, level)
	if !ok {
		return state.Buff{}, errors.Newf(errors.ErrInvalidParam, "增益 %s 不存在等级 %d", t, level)
	}

	b := state.Buff{
		Type:    t,
		Level:   effect.Level,
		Value:   effect.Value,
		Special: effect.Special,
		Source:  Source(confidantID),
	}

	active := doc.Buffs.Active[:0:0]
	for _, existing := range doc.Buffs.Active {
		if existing.Type != t {
			active = append(active, existing)
		}
	}
	doc.Buffs.Active = append(active, b)
	return b, nil
}

// Active 返回指定类型的生效增益
func Active(buffs []state.Buff, t state.BuffType) (state.Buff, bool) {
	for _, b := range buffs {
		if b.Type == t {
			return b, true
		}
	}
	return state.Buff{}, false
}

// Level 返回增益等级，未生效时为0
func Level(doc *state.Document, t state.BuffType) int {
	if b, ok := Active(doc.Buffs.Active, t); ok {
		return b.Level
	}
	return 0
}

// Value 返回增益百分比值，未生效时为0
func Value(buffs []state.Buff, t state.BuffType) float64 {
	if b, ok := Active(buffs, t); ok {
		return b.Value
	}
	return 0
}

// Discount 按议价增益打折，四舍五入到整数货币单位
func Discount(buffs []state.Buff, cost int64) int64 {
	v := Value(buffs, Bargain)
	if v <= 0 || cost <= 0 {
		return cost
	}
	return int64(math.Round(float64(cost) * (1 - v/100)))
}
