// room/room.go
package room

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/wfunc/spyserver/state"
)

// Player 房间中的一名玩家
type Player struct {
	ID        string
	Name      string
	Connected bool
}

// Settings 每个房间独立的游戏设置
type Settings struct {
	SpyCount              int
	ShowSpyCountToPlayers bool
	AllowSpyDiscussion    bool
	SpyHintsEnabled       bool
	MaxPlayers            int
}

// Vote 一张投票：voter -> target
type Vote struct {
	Voter  string
	Target string
}

// Room 是游戏房间的核心结构。
// 除 Code 和 Lock/Unlock 外，所有方法都要求调用方持有房间锁。
type Room struct {
	Code      string
	HostID    string
	Category  string
	Word      string
	Settings  Settings
	State     *state.Machine
	CreatedAt time.Time
	StartedAt time.Time
	Rounds    int

	players  []*Player
	spies    []string
	spyNames []string
	votes    []Vote
	deleted  bool
	mutex    sync.Mutex
}

// NewRoom 创建一个新房间，host 为唯一玩家和房主
func NewRoom(code string, host *Player, settings Settings) *Room {
	r := &Room{
		Code:      code,
		HostID:    host.ID,
		Settings:  settings,
		CreatedAt: time.Now(),
		players:   []*Player{host},
	}
	r.State = newPhaseMachine(r)
	return r
}

// newPhaseMachine 注册阶段转换表
func newPhaseMachine(r *Room) *state.Machine {
	sm := state.NewMachine(state.Waiting)

	sm.AddTransition(state.Waiting, state.Starting, nil)
	sm.AddTransition(state.Starting, state.WordShown, nil)

	sm.AddTransition(state.WordShown, state.Discussion, nil)
	sm.AddTransition(state.Starting, state.Discussion, nil)
	sm.AddTransition(state.Waiting, state.Discussion, r.RoundActive)

	sm.AddTransition(state.Discussion, state.Voting, nil)
	sm.AddTransition(state.WordShown, state.Voting, nil)
	sm.AddTransition(state.Waiting, state.Voting, r.RoundActive)
	// 重新开始投票会清空已投的票
	sm.AddTransition(state.Voting, state.Voting, nil)

	sm.AddTransition(state.Voting, state.Waiting, nil)
	sm.AddTransition(state.Voting, state.Finished, nil)

	// 每轮投票开始和结束都清空票箱
	sm.OnEnter(state.Voting, func(state.Phase) { r.ClearVotes() })
	sm.OnEnter(state.Waiting, func(state.Phase) { r.ClearVotes() })
	return sm
}

func (r *Room) Lock()   { r.mutex.Lock() }
func (r *Room) Unlock() { r.mutex.Unlock() }

// Deleted reports whether the room was removed from the store after the
// caller looked it up.
func (r *Room) Deleted() bool { return r.deleted }

func (r *Room) MarkDeleted() { r.deleted = true }

func (r *Room) Phase() state.Phase { return r.State.Current() }

// RoundActive 一局游戏已发词且尚未重开
func (r *Room) RoundActive() bool { return r.Word != "" }

// --- 玩家 ---

func (r *Room) AddPlayer(p *Player) {
	r.players = append(r.players, p)
}

// RemovePlayer 移除玩家并维护房主、卧底和投票的一致性
func (r *Room) RemovePlayer(id string) (*Player, bool) {
	idx := slices.IndexFunc(r.players, func(p *Player) bool { return p.ID == id })
	if idx < 0 {
		return nil, false
	}
	removed := r.players[idx]
	r.players = slices.Delete(r.players, idx, idx+1)

	r.spies = slices.DeleteFunc(r.spies, func(s string) bool { return s == id })
	r.votes = slices.DeleteFunc(r.votes, func(v Vote) bool { return v.Voter == id || v.Target == id })

	if r.HostID == id && len(r.players) > 0 {
		r.HostID = r.players[0].ID
	}
	return removed, true
}

func (r *Room) Player(id string) (*Player, bool) {
	for _, p := range r.players {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// NameTaken 名字大小写不敏感地比较
func (r *Room) NameTaken(name string) bool {
	for _, p := range r.players {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// Players returns the roster in join order.
func (r *Room) Players() []*Player {
	return slices.Clone(r.players)
}

func (r *Room) PlayerIDs() []string {
	ids := make([]string, len(r.players))
	for i, p := range r.players {
		ids[i] = p.ID
	}
	return ids
}

func (r *Room) PlayerCount() int { return len(r.players) }

func (r *Room) IsHost(id string) bool { return r.HostID == id }

// --- 卧底 ---

// SetSpies 记录本局卧底，名字会一直保留到重开以便结算时公布
func (r *Room) SetSpies(ids []string) {
	r.spies = slices.Clone(ids)
	r.spyNames = r.spyNames[:0]
	for _, p := range r.players {
		if r.IsSpy(p.ID) {
			r.spyNames = append(r.spyNames, p.Name)
		}
	}
}

// AssignedSpyNames 本局开始时分配的全部卧底，包括已被淘汰或离开的
func (r *Room) AssignedSpyNames() []string {
	return slices.Clone(r.spyNames)
}

func (r *Room) IsSpy(id string) bool {
	return slices.Contains(r.spies, id)
}

// SpyIDs 按加入顺序返回卧底
func (r *Room) SpyIDs() []string {
	ids := make([]string, 0, len(r.spies))
	for _, p := range r.players {
		if r.IsSpy(p.ID) {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (r *Room) SpyCount() int { return len(r.spies) }

func (r *Room) CivilianCount() int { return len(r.players) - len(r.spies) }

// --- 投票 ---

// CastVote 覆盖投票时保留原来的位置
func (r *Room) CastVote(voter, target string) {
	for i := range r.votes {
		if r.votes[i].Voter == voter {
			r.votes[i].Target = target
			return
		}
	}
	r.votes = append(r.votes, Vote{Voter: voter, Target: target})
}

func (r *Room) Votes() []Vote {
	return slices.Clone(r.votes)
}

func (r *Room) VoteCount() int { return len(r.votes) }

func (r *Room) ClearVotes() {
	r.votes = nil
}

// ResetRound 清空本局的词语、卧底和投票
func (r *Room) ResetRound() {
	r.Category = ""
	r.Word = ""
	r.spies = nil
	r.spyNames = nil
	r.votes = nil
	r.StartedAt = time.Time{}
	r.Rounds = 0
}
