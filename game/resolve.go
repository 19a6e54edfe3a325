package game

import (
	"time"

	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/room"
	"github.com/wfunc/spyserver/state"
)

const (
	reasonLastSpyCaught = "The last spy was caught. Civilians win!"
	reasonAllSpiesOut   = "Every spy has been caught. Civilians win!"
	reasonSpiesMajority = "Spies now match the civilians. Spies win!"
)

// tally 按投票顺序计票，候选人按首次出现的顺序排列
func tally(r *room.Room) []VoteCount {
	var counts []VoteCount
	index := make(map[string]int)
	for _, v := range r.Votes() {
		i, seen := index[v.Target]
		if !seen {
			i = len(counts)
			index[v.Target] = i
			vc := VoteCount{PlayerID: v.Target, Voters: []string{}}
			if p, ok := r.Player(v.Target); ok {
				vc.PlayerName = p.Name
			}
			counts = append(counts, vc)
		}
		counts[i].Votes++
		if voter, ok := r.Player(v.Voter); ok {
			counts[i].Voters = append(counts[i].Voters, voter.Name)
		}
	}
	return counts
}

// leader 严格最高票者胜出，平票时先出现的候选人胜出
func leader(counts []VoteCount) (VoteCount, bool) {
	best := -1
	for i, c := range counts {
		if best < 0 || c.Votes > counts[best].Votes {
			best = i
		}
	}
	if best < 0 {
		return VoteCount{}, false
	}
	return counts[best], true
}

// resolve runs once every player in the room has voted.
func (e *Engine) resolve(r *room.Room, out *Outcome) {
	counts := tally(r)
	top, ok := leader(counts)
	if !ok {
		return
	}
	eliminated, ok := r.Player(top.PlayerID)
	if !ok {
		r.ClearVotes()
		return
	}
	r.Rounds++

	wasSpy := r.IsSpy(top.PlayerID)
	audience := r.PlayerIDs()

	if wasSpy && r.SpyCount() == 1 {
		// 最后一个卧底留在房间里查看结果
		e.finish(r, out, audience, counts, eliminated.Name, WinnerCivilians, reasonLastSpyCaught)
		return
	}

	r.RemovePlayer(eliminated.ID)
	out.Removed = append(out.Removed, eliminated.ID)

	switch {
	case wasSpy && r.SpyCount() == 0:
		e.finish(r, out, audience, counts, eliminated.Name, WinnerCivilians, reasonAllSpiesOut)
	case !wasSpy && r.SpyCount() >= r.CivilianCount():
		e.finish(r, out, audience, counts, eliminated.Name, WinnerSpies, reasonSpiesMajority)
	default:
		r.State.ChangeState(state.Waiting)
		logger.Log.Infow("player eliminated", "room", r.Code, "player", eliminated.Name, "spy", wasSpy, "spiesRemaining", r.SpyCount())
		out.send(audience, PlayerEliminated{
			Type:               EventPlayerEliminated,
			EliminatedPlayer:   eliminated.Name,
			EliminatedPlayerID: eliminated.ID,
			IsSpy:              wasSpy,
			GameOver:           false,
			SpiesRemaining:     r.SpyCount(),
			VoteCounts:         counts,
			Room:               r.View(),
		})
	}

	if r.PlayerCount() == 0 {
		e.deleteRoom(r, out)
	}
}

func (e *Engine) finish(r *room.Room, out *Outcome, audience []string, counts []VoteCount, eliminated, winner, reason string) {
	r.State.ChangeState(state.Finished)

	results := Results{
		SpiesWon:         winner == WinnerSpies,
		Winner:           winner,
		Reason:           reason,
		Word:             r.Word,
		Category:         r.Category,
		Spies:            r.AssignedSpyNames(),
		EliminatedPlayer: eliminated,
		VoteCounts:       counts,
	}
	out.send(audience, GameFinished{Type: EventGameFinished, Results: results, Room: r.View()})

	names := make([]string, 0, r.PlayerCount())
	for _, p := range r.Players() {
		names = append(names, p.Name)
	}
	out.Finished = &Summary{
		RoomCode:   r.Code,
		Results:    results,
		Players:    names,
		Rounds:     r.Rounds,
		StartedAt:  r.StartedAt,
		FinishedAt: time.Now(),
	}
	logger.Log.Infow("game finished", "room", r.Code, "winner", winner, "rounds", r.Rounds)
}
