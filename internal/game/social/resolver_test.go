package social

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game/buff"
	"github.com/wfunc/noodle-rush/internal/game/rng"
	"github.com/wfunc/noodle-rush/internal/game/state"
)

// ResolverTestSuite 知己判定测试套件
type ResolverTestSuite struct {
	suite.Suite
	ctx   context.Context
	rng   *rng.ScriptedRandomGenerator
	res   *Resolver
	store *state.Store
}

func (s *ResolverTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.rng = rng.NewScriptedRandomGenerator()
	s.res = NewResolver(nil, nil, s.rng, nil)
	s.store = state.NewStore()
}

func (s *ResolverTestSuite) TestAvailability() {
	c := Confidant{ID: "x", FirstAppearance: 3, Frequency: 2}
	s.False(c.AvailableAt(1))
	s.True(c.AvailableAt(3))
	s.False(c.AvailableAt(4))
	s.True(c.AvailableAt(5))

	s.Len(s.res.Eligible(Market, 1), 1)
	s.Len(s.res.Eligible(Market, 5), 2) // chef_li 与 merchant_wu
	s.Empty(s.res.Eligible(Gym, 1))
}

func (s *ResolverTestSuite) TestHomeNeverConsultsConfidants() {
	doc := state.NewDocument(state.DefaultNewGameOptions())
	enc, err := s.res.ResolveEncounter(doc, Home, 1)
	s.NoError(err)
	s.Equal(OutcomeRest, enc.Outcome)
	s.Equal(0, s.rng.Remaining())
}

func (s *ResolverTestSuite) TestNoCandidate() {
	s.rng.Push(0.0, 0.0)
	doc := state.NewDocument(state.DefaultNewGameOptions())

	enc, err := s.res.ResolveEncounter(doc, Gym, 1)
	s.NoError(err)
	s.Equal(OutcomeNoCandidate, enc.Outcome)
	s.Equal(2, s.rng.Remaining())
}

func (s *ResolverTestSuite) TestCoinTailsYieldsNothing() {
	s.rng.Push(0.0, 0.9)
	doc := state.NewDocument(state.DefaultNewGameOptions())

	enc, err := s.res.ResolveEncounter(doc, Bar, 1)
	s.NoError(err)
	s.Equal(OutcomeNothing, enc.Outcome)
	s.Empty(doc.Social.Relationships)
	s.Empty(doc.Buffs.Active)
}

func (s *ResolverTestSuite) TestNewConfidantThenLevelUp() {
	doc := state.NewDocument(state.DefaultNewGameOptions())

	s.rng.Push(0.0, 0.1)
	enc, err := s.res.ResolveEncounter(doc, Bar, 1)
	s.Require().NoError(err)
	s.Equal(OutcomeNewConfidant, enc.Outcome)
	s.Equal("bartender", enc.ConfidantID)
	s.Equal(1, enc.Level)
	s.Equal(1, buff.Level(doc, buff.CrowdPull))

	s.rng.Push(0.0, 0.1)
	enc, err = s.res.ResolveEncounter(doc, Bar, 2)
	s.Require().NoError(err)
	s.Equal(OutcomeLevelUp, enc.Outcome)
	s.Equal(2, enc.Level)
	s.Equal(2, buff.Level(doc, buff.CrowdPull))
	s.Len(doc.Buffs.Active, 1)

	rel, ok := doc.Relationship("bartender")
	s.True(ok)
	s.Equal(2, rel.Level)
}

// 已满级的知己再次相遇：等级与增益都不变
func (s *ResolverTestSuite) TestMaxedConfidantUnchanged() {
	doc := state.NewDocument(state.DefaultNewGameOptions())
	doc.Social.Relationships = []state.Relationship{{ConfidantID: "bartender", Level: 5}}
	doc.Buffs.Active = []state.Buff{{Type: buff.CrowdPull, Level: 5, Value: 30, Source: buff.Source("bartender")}}
	before := doc.Clone()

	s.rng.Push(0.0, 0.1)
	enc, err := s.res.ResolveEncounter(doc, Bar, 7)
	s.Require().NoError(err)
	s.Equal(OutcomeMaxed, enc.Outcome)
	s.Nil(enc.Buff)
	s.Equal(before.Social.Relationships, doc.Social.Relationships)
	s.Equal(before.Buffs.Active, doc.Buffs.Active)
}

func (s *ResolverTestSuite) TestSpendPersonalTime_Home() {
	_, err := s.store.Update(s.ctx, func(doc *state.Document) error {
		doc.PlayerStats.Burnout = 60
		return nil
	})
	s.Require().NoError(err)

	res, err := s.res.SpendPersonalTime(s.ctx, s.store, Home)
	s.Require().NoError(err)
	s.Equal(60, res.BurnoutBefore)
	s.Equal(35, res.BurnoutAfter)
	s.Equal(OutcomeRest, res.Encounter.Outcome)

	doc := s.store.Get(s.ctx)
	s.True(doc.Social.SocialActionDoneInPeriod)
	s.Equal([]state.PersonalTimeEntry{{Period: 1, Location: "Home", Outcome: "rest"}}, doc.Social.PersonalTime.History)
}

func (s *ResolverTestSuite) TestSpendPersonalTime_OtherLocationRollsEncounter() {
	_, err := s.store.Update(s.ctx, func(doc *state.Document) error {
		doc.PlayerStats.Burnout = 5
		return nil
	})
	s.Require().NoError(err)

	s.rng.Push(0.0, 0.1)
	res, err := s.res.SpendPersonalTime(s.ctx, s.store, Park)
	s.Require().NoError(err)
	s.Equal(0, res.BurnoutAfter)
	s.Equal(OutcomeNewConfidant, res.Encounter.Outcome)
	s.Equal("zen_master", res.Encounter.ConfidantID)

	doc := s.store.Get(s.ctx)
	s.Equal(1, doc.Statistics.ConfidantEncounters)
	s.Equal(1, buff.Level(doc, buff.MentalClarity))
}

// 同一周期第二次个人时间被拒绝，无任何副作用
func (s *ResolverTestSuite) TestSpendPersonalTime_SecondAttemptRejected() {
	_, err := s.store.Update(s.ctx, func(doc *state.Document) error {
		doc.PlayerStats.Burnout = 50
		return nil
	})
	s.Require().NoError(err)

	_, err = s.res.SpendPersonalTime(s.ctx, s.store, Market)
	s.Require().NoError(err)
	first := s.store.Get(s.ctx)

	notified := 0
	s.store.Subscribe(func(doc *state.Document) { notified++ })

	_, err = s.res.SpendPersonalTime(s.ctx, s.store, Home)
	s.True(errors.Is(err, errors.ErrSocialActionDone))
	s.Equal(0, notified)

	second := s.store.Get(s.ctx)
	s.True(second.Social.SocialActionDoneInPeriod)
	s.Equal(first.PlayerStats.Burnout, second.PlayerStats.Burnout)
	s.Equal(first.Social.PersonalTime.History, second.Social.PersonalTime.History)
}

func (s *ResolverTestSuite) TestSpendPersonalTime_UnknownLocation() {
	_, err := s.res.SpendPersonalTime(s.ctx, s.store, "Moon")
	s.True(errors.Is(err, errors.ErrInvalidParam))
	s.False(s.store.Get(s.ctx).Social.SocialActionDoneInPeriod)
}

func (s *ResolverTestSuite) TestPlanPersonalTime() {
	s.Require().NoError(PlanPersonalTime(s.ctx, s.store, Library))
	s.Equal("Library", s.store.Get(s.ctx).Social.PersonalTime.Planned)
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}
