package room

// PlayerView is the wire form of a player.
type PlayerView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

// View is the public snapshot of a room carried by room-bearing events.
// It never contains the word or the spy list.
type View struct {
	Code     string       `json:"code"`
	Players  []PlayerView `json:"players"`
	HostID   string       `json:"hostId"`
	State    string       `json:"state"`
	Category *string      `json:"category"`
}

// View 调用方需持有房间锁
func (r *Room) View() View {
	players := make([]PlayerView, len(r.players))
	for i, p := range r.players {
		players[i] = PlayerView{ID: p.ID, Name: p.Name, Connected: p.Connected}
	}
	v := View{
		Code:    r.Code,
		Players: players,
		HostID:  r.HostID,
		State:   r.Phase().String(),
	}
	if r.Category != "" {
		category := r.Category
		v.Category = &category
	}
	return v
}
