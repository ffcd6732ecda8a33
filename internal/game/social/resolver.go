package social

import (
	"context"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/rng"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// Outcome 个人时间结果
type Outcome string

// 结果
const (
	OutcomeRest         Outcome = "rest"          // 在家休息，不遇见知己
	OutcomeNoCandidate  Outcome = "no_candidate"  // 该地点本周期没有可遇见的知己
	OutcomeNothing      Outcome = "nothing"       // 有知己但未遇见
	OutcomeNewConfidant Outcome = "new_confidant" // 结识新知己，等级 1
	OutcomeLevelUp      Outcome = "level_up"      // 关系等级 +1
	OutcomeMaxed        Outcome = "maxed"         // 已满级，不变
)

// 个人时间的倦怠值减少（百分点）
const (
	HomeBurnoutRelief  = 25
	OtherBurnoutRelief = 10

	encounterChance = 0.5
)

// Encounter 知己相遇结果
type Encounter struct {
	Outcome     Outcome     `json:"outcome"`
	ConfidantID string      `json:"confidant_id,omitempty"`
	Level       int         `json:"level,omitempty"`
	Buff        *state.Buff `json:"buff,omitempty"`
}

// Met 是否遇见了知己
func (e Encounter) Met() bool {
	return e.Outcome == OutcomeNewConfidant || e.Outcome == OutcomeLevelUp || e.Outcome == OutcomeMaxed
}

// Resolver 知己相遇判定
type Resolver struct {
	confidants []Confidant
	registry   *buff.Registry
	rng        rng.RandomGenerator
	logger     *zap.Logger
}

// NewResolver 创建判定器
func NewResolver(confidants []Confidant, registry *buff.Registry, g rng.RandomGenerator, logger *zap.Logger) *Resolver {
	if confidants == nil {
		confidants = DefaultConfidants()
	}
	if registry == nil {
		registry = buff.DefaultRegistry()
	}
	if g == nil {
		g = rng.NewSeededRandomGenerator(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		confidants: confidants,
		registry:   registry,
		rng:        g,
		logger:     logger,
	}
}

// Confidants 知己目录
func (r *Resolver) Confidants() []Confidant {
	out := make([]Confidant, len(r.confidants))
	copy(out, r.confidants)
	return out
}

// Confidant 按ID查找知己
func (r *Resolver) Confidant(id string) (Confidant, bool) {
	for _, c := range r.confidants {
		if c.ID == id {
			return c, true
		}
	}
	return Confidant{}, false
}

// Eligible 某地点某周期可遇见的知己
func (r *Resolver) Eligible(location Location, period int) []Confidant {
	var out []Confidant
	for _, c := range r.confidants {
		if c.Location == location && c.AvailableAt(period) {
			out = append(out, c)
		}
	}
	return out
}

// ResolveEncounter 判定知己相遇并在文档上应用关系与增益变化。
// 在家不查找知己；先在可遇见的知己中均匀抽取一位，再掷硬币决定是否相遇。
func (r *Resolver) ResolveEncounter(doc *state.Document, location Location, period int) (Encounter, error) {
	if location == Home {
		return Encounter{Outcome: OutcomeRest}, nil
	}

	eligible := r.Eligible(location, period)
	if len(eligible) == 0 {
		return Encounter{Outcome: OutcomeNoCandidate}, nil
	}

	c := eligible[r.rng.NextInt(0, len(eligible))]
	if !rng.Chance(r.rng, encounterChance) {
		return Encounter{Outcome: OutcomeNothing, ConfidantID: c.ID}, nil
	}

	rel, ok := doc.Relationship(c.ID)
	if !ok {
		doc.Social.Relationships = append(doc.Social.Relationships, state.Relationship{ConfidantID: c.ID, Level: 1})
		b, err := r.registry.Apply(doc, c.ID, 1)
		if err != nil {
			return Encounter{}, err
		}
		return Encounter{Outcome: OutcomeNewConfidant, ConfidantID: c.ID, Level: 1, Buff: &b}, nil
	}

	if rel.Level >= c.MaxLevel {
		return Encounter{Outcome: OutcomeMaxed, ConfidantID: c.ID, Level: rel.Level}, nil
	}

	rel.Level++
	level := rel.Level
	b, err := r.registry.Apply(doc, c.ID, level)
	if err != nil {
		return Encounter{}, err
	}
	return Encounter{Outcome: OutcomeLevelUp, ConfidantID: c.ID, Level: level, Buff: &b}, nil
}

// PersonalTimeResult 个人时间结算
type PersonalTimeResult struct {
	Period        int       `json:"period"`
	Location      Location  `json:"location"`
	BurnoutBefore int       `json:"burnout_before"`
	BurnoutAfter  int       `json:"burnout_after"`
	Encounter     Encounter `json:"encounter"`
}

// SpendPersonalTime 度过个人时间：每周期只能一次，重复调用被拒绝且无副作用。
// 在家减少 25 点倦怠值；其他地点减少 10 点，然后判定知己相遇。
func (r *Resolver) SpendPersonalTime(ctx context.Context, store *state.Store, location Location) (PersonalTimeResult, error) {
	if !location.IsValid() {
		return PersonalTimeResult{}, errors.Newf(errors.ErrInvalidParam, "未知地点 %q", location)
	}

	var res PersonalTimeResult
	_, err := store.Update(ctx, func(doc *state.Document) error {
		if doc.Social.SocialActionDoneInPeriod {
			return errors.New(errors.ErrSocialActionDone)
		}

		period := doc.GameProgress.CurrentPeriod
		res = PersonalTimeResult{
			Period:        period,
			Location:      location,
			BurnoutBefore: doc.PlayerStats.Burnout,
		}

		relief := OtherBurnoutRelief
		if location == Home {
			relief = HomeBurnoutRelief
		}
		doc.PlayerStats.Burnout = state.ClampBurnout(doc.PlayerStats.Burnout - relief)

		enc, err := r.ResolveEncounter(doc, location, period)
		if err != nil {
			return err
		}
		if enc.Met() {
			doc.Statistics.ConfidantEncounters++
		}

		doc.Social.SocialActionDoneInPeriod = true
		doc.Social.PersonalTime.Planned = ""
		doc.Social.PersonalTime.History = append(doc.Social.PersonalTime.History, state.PersonalTimeEntry{
			Period:      period,
			Location:    string(location),
			Outcome:     string(enc.Outcome),
			ConfidantID: enc.ConfidantID,
		})

		res.BurnoutAfter = doc.PlayerStats.Burnout
		res.Encounter = enc
		return nil
	})
	if err != nil {
		return PersonalTimeResult{}, err
	}

	r.logger.Info("个人时间",
		zap.Int("period", res.Period),
		zap.String("location", string(location)),
		zap.String("outcome", string(res.Encounter.Outcome)),
		zap.String("confidant", res.Encounter.ConfidantID),
		zap.Int("burnout", res.BurnoutAfter))
	return res, nil
}

// PlanPersonalTime 记录计划前往的地点
func PlanPersonalTime(ctx context.Context, store *state.Store, location Location) error {
	if !location.IsValid() {
		return errors.Newf(errors.ErrInvalidParam, "未知地点 %q", location)
	}
	_, err := store.Update(ctx, func(doc *state.Document) error {
		doc.Social.PersonalTime.Planned = string(location)
		return nil
	})
	return err
}
