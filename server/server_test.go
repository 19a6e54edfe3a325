package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/spyserver/config"
	"github.com/wfunc/spyserver/game"
	"github.com/wfunc/spyserver/monitor"
	"github.com/wfunc/spyserver/network"
	"github.com/wfunc/spyserver/persistence"
	"github.com/wfunc/spyserver/services"
	"github.com/wfunc/spyserver/session"
)

type testClient struct {
	t    *testing.T
	conn *websocket.Conn
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{WriteTimeout: time.Second},
		Game: config.GameConfig{
			MinPlayers:         3,
			MaxPlayers:         8,
			DefaultSpyCount:    1,
			AllowSpyDiscussion: true,
			SpyHints:           true,
			SendBuffer:         64,
		},
	}
}

func newTestServer(t *testing.T) (*GameServer, *services.RecordService, string) {
	t.Helper()
	records := services.NewRecordService(persistence.NewMemory(10))
	s, err := NewGameServer(testConfig(), records, monitor.NewMonitor("test"))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, records, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *testClient {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn}
}

func (c *testClient) send(v any) {
	c.t.Helper()
	if err := c.conn.WriteJSON(v); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

// expect reads until an event of the given type arrives.
func (c *testClient) expect(typ string) map[string]any {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.t.Fatalf("waiting for %s: %v", typ, err)
		}
		var ev map[string]any
		if err := json.Unmarshal(data, &ev); err != nil {
			c.t.Fatalf("bad event %s: %v", data, err)
		}
		if ev["type"] == typ {
			return ev
		}
	}
}

func msg(typ string, fields ...any) map[string]any {
	m := map[string]any{"type": typ}
	for i := 0; i+1 < len(fields); i += 2 {
		m[fields[i].(string)] = fields[i+1]
	}
	return m
}

func roomOf(ev map[string]any) map[string]any {
	return ev["room"].(map[string]any)
}

// joinThree sets up a room hosted by the first client.
func joinThree(t *testing.T, url string) (clients []*testClient, ids []string, code string) {
	a, b, c := dial(t, url), dial(t, url), dial(t, url)

	a.send(msg("createRoom", "playerName", "Ali"))
	created := a.expect("roomCreated")
	code = roomOf(created)["code"].(string)
	ids = append(ids, created["playerId"].(string))

	for i, cl := range []*testClient{b, c} {
		cl.send(msg("joinRoom", "roomCode", code, "playerName", []string{"Veli", "Ayşe"}[i]))
		joined := cl.expect("roomJoined")
		ids = append(ids, joined["playerId"].(string))
		a.expect("playerJoined")
	}
	return []*testClient{a, b, c}, ids, code
}

func TestHealthz(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestPingAndMalformed(t *testing.T) {
	_, _, url := newTestServer(t)
	c := dial(t, url)

	c.send(msg("ping"))
	c.expect("pong")

	if err := c.conn.WriteMessage(websocket.TextMessage, []byte("{nope")); err != nil {
		t.Fatal(err)
	}
	ev := c.expect("error")
	if ev["code"] != "MALFORMED_MESSAGE" {
		t.Errorf("Expected MALFORMED_MESSAGE, got %v", ev["code"])
	}

	// unknown types are ignored; the connection keeps working
	c.send(msg("dance"))
	c.send(msg("ping"))
	c.expect("pong")
}

func TestErrorsGoToSenderOnly(t *testing.T) {
	_, _, url := newTestServer(t)
	clients, _, code := joinThree(t, url)

	clients[1].send(msg("startGame", "category", "Hayvanlar"))
	if ev := clients[1].expect("error"); ev["code"] != "NOT_HOST" {
		t.Errorf("Expected NOT_HOST, got %v", ev["code"])
	}

	lone := dial(t, url)
	lone.send(msg("startGame", "roomCode", code))
	if ev := lone.expect("error"); ev["code"] != "PLAYER_NOT_FOUND" {
		t.Errorf("Expected PLAYER_NOT_FOUND, got %v", ev["code"])
	}

	lone.send(msg("joinRoom", "roomCode", "000000", "playerName", "Zed"))
	if ev := lone.expect("error"); ev["code"] != "ROOM_NOT_FOUND" {
		t.Errorf("Expected ROOM_NOT_FOUND, got %v", ev["code"])
	}
	lone.send(msg("joinRoom", "roomCode", code, "playerName", "ali"))
	if ev := lone.expect("error"); ev["code"] != "NAME_TAKEN" {
		t.Errorf("Expected NAME_TAKEN, got %v", ev["code"])
	}
}

func TestFullGameOverWebsocket(t *testing.T) {
	s, records, url := newTestServer(t)
	clients, ids, _ := joinThree(t, url)
	host := clients[0]

	host.send(msg("startGame", "category", "Hayvanlar", "settings", map[string]any{"spyCount": 1}))
	for _, c := range clients {
		c.expect("gameStarted")
	}

	host.send(msg("showWord"))
	spy := ""
	var word string
	for i, c := range clients {
		ev := c.expect("wordShown")
		if ev["isSpy"] == true {
			if ev["word"] != nil {
				t.Error("The spy received the word")
			}
			spy = ids[i]
		} else {
			w, ok := ev["word"].(string)
			if !ok || w == "" {
				t.Error("A civilian did not receive the word")
			}
			word = w
		}
	}
	if spy == "" {
		t.Fatal("Nobody was made a spy")
	}

	host.send(msg("startDiscussion"))
	for _, c := range clients {
		c.expect("discussionStarted")
	}
	host.send(msg("startVoting"))
	for _, c := range clients {
		c.expect("votingStarted")
	}

	for _, c := range clients {
		// a spoofed playerId is ignored in favour of the connection's player
		c.send(msg("vote", "playerId", "someone-else", "votedPlayerId", spy))
	}
	for _, c := range clients {
		ev := c.expect("gameFinished")
		results := ev["results"].(map[string]any)
		if results["winner"] != "civilians" || results["spiesWon"] != false || results["word"] != word {
			t.Errorf("Unexpected results %v", results)
		}
	}

	// archiving happens in the background
	deadline := time.Now().Add(2 * time.Second)
	for {
		games, err := records.RecentGames(context.Background(), 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(games) == 1 {
			if games[0].Winner != "civilians" || games[0].Word != word || len(games[0].Players) != 3 {
				t.Errorf("Unexpected archived game %+v", games[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Finished game was not archived")
		}
		time.Sleep(10 * time.Millisecond)
	}

	rooms, players := s.engine.Stats()
	if rooms != 1 || players != 3 {
		t.Errorf("Expected the finished room to stay with 3 players, got %d/%d", rooms, players)
	}
}

func TestDisconnectMigratesHost(t *testing.T) {
	s, _, url := newTestServer(t)
	clients, ids, _ := joinThree(t, url)

	clients[0].conn.Close()
	left := clients[1].expect("playerLeft")
	if left["playerId"] != ids[0] || roomOf(left)["hostId"] != ids[1] {
		t.Errorf("Expected host to move to the second player, got %v", left)
	}

	clients[1].send(msg("leaveRoom"))
	clients[2].expect("playerLeft")
	clients[2].send(msg("leaveRoom"))

	deadline := time.Now().Add(2 * time.Second)
	for s.roomManager.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.roomManager.Count() != 0 {
		t.Error("Room should be deleted once everyone left")
	}
}

func TestSweepClosesSilentConnections(t *testing.T) {
	s, _, url := newTestServer(t)
	silent := dial(t, url)
	silent.send(msg("createRoom", "playerName", "Ali"))
	code := roomOf(silent.expect("roomCreated"))["code"].(string)

	chatty := dial(t, url)
	chatty.send(msg("joinRoom", "roomCode", code, "playerName", "Veli"))
	joined := chatty.expect("roomJoined")

	s.sweep()
	chatty.send(msg("ping"))
	chatty.expect("pong")
	s.sweep()

	left := chatty.expect("playerLeft")
	if roomOf(left)["hostId"] != joined["playerId"] {
		t.Errorf("Host should move to the responsive player, got %v", left)
	}
	if s.sessionManager.Count() != 1 {
		t.Errorf("Expected one live session, got %d", s.sessionManager.Count())
	}
}

type stubConnection struct{}

func (stubConnection) Send([]byte) error    { return nil }
func (stubConnection) Ping() error          { return nil }
func (stubConnection) Close() error         { return nil }
func (stubConnection) RemoteAddr() net.Addr { return &net.TCPAddr{} }

// A session dropped by the sweep while its join is in flight must not leave
// the player behind in the room.
func TestEnterAfterDisconnectLeavesRoom(t *testing.T) {
	s, _, _ := newTestServer(t)

	host, err := s.engine.CreateRoom("Ali")
	if err != nil {
		t.Fatal(err)
	}

	sess := session.NewSession("late", stubConnection{})
	s.sessionManager.Add(sess)
	s.disconnect(sess)

	s.enter(sess, func() (*game.Outcome, error) {
		return s.engine.JoinRoom(host.RoomCode, "Veli")
	})
	r, ok := s.roomManager.Get(host.RoomCode)
	if !ok {
		t.Fatal("Host room should still exist")
	}
	r.Lock()
	count := r.PlayerCount()
	r.Unlock()
	if count != 1 {
		t.Errorf("Expected only the host to remain, got %d players", count)
	}

	s.enter(sess, func() (*game.Outcome, error) {
		return s.engine.CreateRoom("Ayse")
	})
	if s.roomManager.Count() != 1 {
		t.Errorf("A room created by a closed session should be deleted, got %d rooms", s.roomManager.Count())
	}
	if _, _, bound := sess.Binding(); bound {
		t.Error("A closed session must stay unbound")
	}
}

func TestShutdownNotifiesRooms(t *testing.T) {
	s, _, url := newTestServer(t)
	host := dial(t, url)
	host.send(msg("createRoom", "playerName", "Ali"))
	host.expect("roomCreated")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	notice := host.expect("error")
	if notice["code"] != network.CodeServerShutdown {
		t.Errorf("Expected SERVER_SHUTDOWN, got %v", notice)
	}
}
