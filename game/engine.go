package game

import (
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/spyserver/lexicon"
	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/room"
	"github.com/wfunc/spyserver/state"
)

const DefaultMinPlayers = 3

// Options 引擎的可配置项
type Options struct {
	MinPlayers int
	// Defaults are copied into every new room.
	Defaults room.Settings
}

// SettingsPatch carries the optional overrides sent with startGame.
// A nil field keeps the room's current value.
type SettingsPatch struct {
	SpyCount              *int
	ShowSpyCountToPlayers *bool
	AllowSpyDiscussion    *bool
	SpyHintsEnabled       *bool
}

// Engine 执行所有游戏规则。每个操作都在房间锁内完成，
// 返回待发送的事件，由调用方在释放锁之后投递。
type Engine struct {
	rooms      *room.Manager
	words      *lexicon.Lexicon
	minPlayers int
	defaults   room.Settings

	rng   *rand.Rand
	rngMu sync.Mutex
}

func NewEngine(rooms *room.Manager, words *lexicon.Lexicon, rng *rand.Rand, opts Options) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.MinPlayers < 1 {
		opts.MinPlayers = DefaultMinPlayers
	}
	if opts.Defaults.MaxPlayers < 1 {
		opts.Defaults.MaxPlayers = 8
	}
	if opts.Defaults.SpyCount < 1 {
		opts.Defaults.SpyCount = 1
	}
	return &Engine{
		rooms:      rooms,
		words:      words,
		minPlayers: opts.MinPlayers,
		defaults:   opts.Defaults,
		rng:        rng,
	}
}

// withRoom 加锁执行 fn；房间在查找后被删除时视为不存在
func (e *Engine) withRoom(code string, fn func(r *room.Room) (*Outcome, error)) (*Outcome, error) {
	r, ok := e.rooms.Get(code)
	if !ok {
		return nil, ErrRoomNotFound
	}
	r.Lock()
	defer r.Unlock()
	if r.Deleted() {
		return nil, ErrRoomNotFound
	}
	return fn(r)
}

func newPlayer(name string) *room.Player {
	return &room.Player{ID: uuid.NewString(), Name: strings.TrimSpace(name), Connected: true}
}

func (e *Engine) CreateRoom(name string) (*Outcome, error) {
	host := newPlayer(name)
	r, err := e.rooms.Create(host, e.defaults)
	if err != nil {
		return nil, err
	}

	r.Lock()
	defer r.Unlock()

	logger.Log.Infow("room created", "room", r.Code, "host", host.Name)
	out := &Outcome{RoomCode: r.Code, PlayerID: host.ID}
	out.send([]string{host.ID}, RoomEntered{Type: EventRoomCreated, PlayerID: host.ID, Room: r.View()})
	return out, nil
}

func (e *Engine) JoinRoom(code, name string) (*Outcome, error) {
	return e.withRoom(code, func(r *room.Room) (*Outcome, error) {
		name = strings.TrimSpace(name)
		if r.Phase() != state.Waiting || r.RoundActive() {
			return nil, ErrInvalidPhase
		}
		if r.NameTaken(name) {
			return nil, ErrNameTaken
		}
		if r.PlayerCount() >= r.Settings.MaxPlayers {
			return nil, ErrRoomFull
		}

		others := r.PlayerIDs()
		p := newPlayer(name)
		r.AddPlayer(p)

		view := r.View()
		out := &Outcome{RoomCode: r.Code, PlayerID: p.ID}
		out.send([]string{p.ID}, RoomEntered{Type: EventRoomJoined, PlayerID: p.ID, Room: view})
		out.send(others, PlayerJoined{
			Type:   EventPlayerJoined,
			Player: room.PlayerView{ID: p.ID, Name: p.Name, Connected: p.Connected},
			Room:   view,
		})
		return out, nil
	})
}

func (e *Engine) StartGame(code, playerID, category string, patch SettingsPatch) (*Outcome, error) {
	return e.withRoom(code, func(r *room.Room) (*Outcome, error) {
		if !r.IsHost(playerID) {
			return nil, ErrNotHost
		}
		if !r.State.Can(state.Starting) {
			return nil, ErrInvalidPhase
		}
		if r.PlayerCount() < e.minPlayers {
			return nil, ErrNotEnoughPlayers
		}

		applyPatch(&r.Settings, patch)

		word, resolved := e.words.WordFor(category)
		r.ResetRound()
		r.Category = resolved
		r.Word = word
		r.SetSpies(e.assignSpies(r.PlayerIDs(), r.Settings.SpyCount))
		r.StartedAt = time.Now()
		if err := r.State.ChangeState(state.Starting); err != nil {
			return nil, ErrInvalidPhase
		}

		logger.Log.Infow("game started", "room", r.Code, "category", resolved, "players", r.PlayerCount(), "spies", r.SpyCount())
		out := &Outcome{RoomCode: r.Code}
		out.send(r.PlayerIDs(), roomEvent(EventGameStarted, r))
		return out, nil
	})
}

func applyPatch(s *room.Settings, patch SettingsPatch) {
	if patch.SpyCount != nil && *patch.SpyCount > 0 {
		s.SpyCount = *patch.SpyCount
	}
	if patch.ShowSpyCountToPlayers != nil {
		s.ShowSpyCountToPlayers = *patch.ShowSpyCountToPlayers
	}
	if patch.AllowSpyDiscussion != nil {
		s.AllowSpyDiscussion = *patch.AllowSpyDiscussion
	}
	if patch.SpyHintsEnabled != nil {
		s.SpyHintsEnabled = *patch.SpyHintsEnabled
	}
}

// ShowWord 给每个玩家单独发送词语，卧底收到的 word 为 null
func (e *Engine) ShowWord(code, playerID string) (*Outcome, error) {
	return e.withRoom(code, func(r *room.Room) (*Outcome, error) {
		if !r.IsHost(playerID) {
			return nil, ErrNotHost
		}
		if err := r.State.ChangeState(state.WordShown); err != nil {
			return nil, ErrInvalidPhase
		}

		view := r.View()
		spyIDs := r.SpyIDs()
		out := &Outcome{RoomCode: r.Code}
		for _, p := range r.Players() {
			ev := WordShown{
				Type:            EventWordShown,
				IsSpy:           r.IsSpy(p.ID),
				Category:        r.Category,
				OtherSpies:      []string{},
				SpyHintsEnabled: r.Settings.SpyHintsEnabled,
				Room:            view,
			}
			if !ev.IsSpy {
				word := r.Word
				ev.Word = &word
			} else if r.Settings.AllowSpyDiscussion {
				for _, id := range spyIDs {
					if other, ok := r.Player(id); ok && id != p.ID {
						ev.OtherSpies = append(ev.OtherSpies, other.Name)
					}
				}
			}
			if r.Settings.ShowSpyCountToPlayers {
				n := r.SpyCount()
				ev.SpyCount = &n
			}
			out.send([]string{p.ID}, ev)
		}
		return out, nil
	})
}

func (e *Engine) StartDiscussion(code, playerID string) (*Outcome, error) {
	return e.hostTransition(code, playerID, state.Discussion, EventDiscussionStarted)
}

// StartVoting 进入投票阶段时票箱会被清空
func (e *Engine) StartVoting(code, playerID string) (*Outcome, error) {
	return e.hostTransition(code, playerID, state.Voting, EventVotingStarted)
}

func (e *Engine) hostTransition(code, playerID string, to state.Phase, event string) (*Outcome, error) {
	return e.withRoom(code, func(r *room.Room) (*Outcome, error) {
		if !r.IsHost(playerID) {
			return nil, ErrNotHost
		}
		if err := r.State.ChangeState(to); err != nil {
			return nil, ErrInvalidPhase
		}
		out := &Outcome{RoomCode: r.Code}
		out.send(r.PlayerIDs(), roomEvent(event, r))
		return out, nil
	})
}

// Vote 记录一票；所有人都投完后在同一把锁内结算
func (e *Engine) Vote(code, voterID, targetID string) (*Outcome, error) {
	return e.withRoom(code, func(r *room.Room) (*Outcome, error) {
		if r.Phase() != state.Voting {
			return nil, ErrVotingClosed
		}
		if _, ok := r.Player(voterID); !ok {
			return nil, ErrPlayerNotFound
		}
		if _, ok := r.Player(targetID); !ok {
			return nil, ErrPlayerNotFound
		}

		r.CastVote(voterID, targetID)

		out := &Outcome{RoomCode: r.Code}
		out.send(r.PlayerIDs(), VoteUpdate{
			Type:         EventVoteUpdate,
			VotedCount:   r.VoteCount(),
			TotalPlayers: r.PlayerCount(),
		})
		if r.VoteCount() == r.PlayerCount() {
			e.resolve(r, out)
		}
		return out, nil
	})
}

func (e *Engine) RestartGame(code, playerID string) (*Outcome, error) {
	return e.withRoom(code, func(r *room.Room) (*Outcome, error) {
		if !r.IsHost(playerID) {
			return nil, ErrNotHost
		}
		r.ResetRound()
		r.State.Reset(state.Waiting)

		out := &Outcome{RoomCode: r.Code}
		out.send(r.PlayerIDs(), roomEvent(EventGameRestarted, r))
		return out, nil
	})
}

// LeaveRoom 移除玩家，可重复调用。离开本身不会结束游戏，
// 只有房间空了才会被删除。
func (e *Engine) LeaveRoom(code, playerID string) *Outcome {
	out, err := e.withRoom(code, func(r *room.Room) (*Outcome, error) {
		out := &Outcome{RoomCode: r.Code}
		leaver, ok := r.RemovePlayer(playerID)
		if !ok {
			return out, nil
		}
		out.Removed = append(out.Removed, playerID)

		if r.PlayerCount() == 0 {
			e.deleteRoom(r, out)
			return out, nil
		}

		out.send(r.PlayerIDs(), PlayerLeft{
			Type:       EventPlayerLeft,
			PlayerID:   leaver.ID,
			PlayerName: leaver.Name,
			Room:       r.View(),
		})
		if r.Phase() == state.Voting && r.VoteCount() == r.PlayerCount() {
			e.resolve(r, out)
		}
		return out, nil
	})
	if err != nil {
		return &Outcome{RoomCode: code}
	}
	return out
}

func (e *Engine) deleteRoom(r *room.Room, out *Outcome) {
	r.MarkDeleted()
	e.rooms.Delete(r.Code)
	out.RoomDeleted = true
	logger.Log.Infow("room deleted", "room", r.Code)
}

// Stats 当前房间数和玩家数
func (e *Engine) Stats() (rooms, players int) {
	for r := range e.rooms.All() {
		r.Lock()
		if !r.Deleted() {
			rooms++
			players += r.PlayerCount()
		}
		r.Unlock()
	}
	return rooms, players
}

func (e *Engine) assignSpies(ids []string, count int) []string {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return pickSpies(e.rng, ids, count)
}
