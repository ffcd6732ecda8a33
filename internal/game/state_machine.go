package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wfunc/noodle-rush/internal/errors"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseHub        Phase = "hub"        // 大厅：可经营、社交、开始周期
	PhaseDelivering Phase = "delivering" // 配送中
	PhaseResults    Phase = "results"    // 结果展示，等待返回大厅结算
)

// 阶段事件
const (
	EventRunDelivery  = "run_delivery"
	EventResultsReady = "results_ready"
	EventReturnToHub  = "return_to_hub"
	EventAbort        = "abort"
)

// PhaseTransition 阶段转换定义
type PhaseTransition struct {
	From   Phase
	Event  string
	To     Phase
	Action func(ctx context.Context, sm *PhaseMachine) error
}

// PhaseMachine 阶段状态机：hub → delivering → results → hub
type PhaseMachine struct {
	mu          sync.RWMutex
	current     Phase
	transitions map[string]PhaseTransition
	lastUpdate  time.Time
	logger      *zap.Logger

	onPhaseChange func(from, to Phase)
}

// NewPhaseMachine 创建阶段状态机
func NewPhaseMachine(logger *zap.Logger) *PhaseMachine {
	if logger == nil {
		logger = zap.NewNop()
	}
	sm := &PhaseMachine{
		current:     PhaseHub,
		transitions: make(map[string]PhaseTransition),
		lastUpdate:  time.Now(),
		logger:      logger,
	}
	sm.initTransitions()
	return sm
}

// initTransitions 初始化阶段转换规则
func (sm *PhaseMachine) initTransitions() {
	// 大厅 -> 配送中
	sm.addTransition(PhaseTransition{From: PhaseHub, Event: EventRunDelivery, To: PhaseDelivering})

	// 配送中 -> 结果展示
	sm.addTransition(PhaseTransition{From: PhaseDelivering, Event: EventResultsReady, To: PhaseResults})

	// 结果展示 -> 大厅（结算提交后）
	sm.addTransition(PhaseTransition{From: PhaseResults, Event: EventReturnToHub, To: PhaseHub})

	// 配送失败时回到大厅，结果不提交
	sm.addTransition(PhaseTransition{
		From:  PhaseDelivering,
		Event: EventAbort,
		To:    PhaseHub,
		Action: func(ctx context.Context, sm *PhaseMachine) error {
			sm.logger.Warn("配送中止，回到大厅")
			return nil
		},
	})
}

// addTransition 添加阶段转换
func (sm *PhaseMachine) addTransition(t PhaseTransition) {
	sm.transitions[transitionKey(t.From, t.Event)] = t
}

func transitionKey(phase Phase, event string) string {
	return fmt.Sprintf("%s:%s", phase, event)
}

// Trigger 触发事件，无效转换返回 ErrGameStateError 且阶段不变
func (sm *PhaseMachine) Trigger(ctx context.Context, event string) error {
	sm.mu.Lock()

	t, ok := sm.transitions[transitionKey(sm.current, event)]
	if !ok {
		current := sm.current
		sm.mu.Unlock()
		return errors.Newf(errors.ErrGameStateError, "阶段 %s 不能处理事件 %s", current, event)
	}

	if t.Action != nil {
		if err := t.Action(ctx, sm); err != nil {
			sm.mu.Unlock()
			return fmt.Errorf("阶段转换失败: %w", err)
		}
	}

	from := sm.current
	sm.current = t.To
	sm.lastUpdate = time.Now()
	callback := sm.onPhaseChange
	sm.mu.Unlock()

	if callback != nil {
		callback(from, t.To)
	}

	sm.logger.Debug("阶段转换",
		zap.String("from", string(from)),
		zap.String("to", string(t.To)),
		zap.String("event", event))
	return nil
}

// Phase 当前阶段
func (sm *PhaseMachine) Phase() Phase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// Require 当前阶段必须为 phase
func (sm *PhaseMachine) Require(phase Phase) error {
	if current := sm.Phase(); current != phase {
		return errors.Newf(errors.ErrGameStateError, "当前阶段 %s，需要 %s", current, phase)
	}
	return nil
}

// CanTransition 检查是否可以转换
func (sm *PhaseMachine) CanTransition(event string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	_, ok := sm.transitions[transitionKey(sm.current, event)]
	return ok
}

// ValidEvents 当前阶段下的有效事件
func (sm *PhaseMachine) ValidEvents() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	var events []string
	for _, t := range sm.transitions {
		if t.From == sm.current {
			events = append(events, t.Event)
		}
	}
	sort.Strings(events)
	return events
}

// OnPhaseChange 设置阶段变更回调
func (sm *PhaseMachine) OnPhaseChange(fn func(from, to Phase)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.onPhaseChange = fn
}

// LastUpdate 最后一次转换时间
func (sm *PhaseMachine) LastUpdate() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.lastUpdate
}

// Reset 回到大厅
func (sm *PhaseMachine) Reset() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.current = PhaseHub
	sm.lastUpdate = time.Now()
}
