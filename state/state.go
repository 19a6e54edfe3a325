package state

import (
	"errors"
	"sync"
)

// Phase 房间所处的游戏阶段，取值即线上协议中的字符串
type Phase string

const (
	Waiting    Phase = "waiting"
	Starting   Phase = "starting"
	WordShown  Phase = "wordShown"
	Discussion Phase = "discussion"
	Voting     Phase = "voting"
	Finished   Phase = "finished"
)

func (p Phase) String() string {
	return string(p)
}

// ErrTransitionNotAllowed is returned when a transition is not in the table
// or its guard rejects it.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Guard decides whether a registered transition may fire right now.
type Guard func() bool

// Machine 阶段状态机：只允许登记过的转换
type Machine struct {
	current     Phase
	transitions map[Phase]map[Phase]Guard // from -> to -> guard
	onEnter     map[Phase][]func(from Phase)
	mutex       sync.RWMutex
}

func NewMachine(initial Phase) *Machine {
	return &Machine{
		current:     initial,
		transitions: make(map[Phase]map[Phase]Guard),
		onEnter:     make(map[Phase][]func(from Phase)),
	}
}

// AddTransition registers from -> to. A nil guard always allows it.
func (m *Machine) AddTransition(from, to Phase, guard Guard) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.transitions[from]; !exists {
		m.transitions[from] = make(map[Phase]Guard)
	}
	m.transitions[from][to] = guard
}

// OnEnter registers fn to run every time the machine enters phase.
func (m *Machine) OnEnter(phase Phase, fn func(from Phase)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.onEnter[phase] = append(m.onEnter[phase], fn)
}

// Can reports whether ChangeState(to) would succeed.
func (m *Machine) Can(to Phase) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.allowed(to)
}

func (m *Machine) allowed(to Phase) bool {
	targets, exists := m.transitions[m.current]
	if !exists {
		return false
	}
	guard, exists := targets[to]
	if !exists {
		return false
	}
	return guard == nil || guard()
}

func (m *Machine) ChangeState(to Phase) error {
	m.mutex.Lock()
	if !m.allowed(to) {
		m.mutex.Unlock()
		return ErrTransitionNotAllowed
	}
	hooks := m.enter(to)
	m.mutex.Unlock()

	hooks()
	return nil
}

// Reset moves to phase unconditionally; enter hooks still run.
func (m *Machine) Reset(phase Phase) {
	m.mutex.Lock()
	hooks := m.enter(phase)
	m.mutex.Unlock()

	hooks()
}

// enter switches phase and returns the hooks to run outside the lock.
func (m *Machine) enter(to Phase) func() {
	from := m.current
	m.current = to
	fns := m.onEnter[to]
	return func() {
		for _, fn := range fns {
			fn(from)
		}
	}
}

func (m *Machine) Current() Phase {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.current
}
