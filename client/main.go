package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/spyserver/network"
)

const usage = `commands:
  create NAME            create a room
  join CODE NAME         join a room
  start [CATEGORY] [N]   start a game with N spies (host)
  show                   reveal words (host)
  discuss                start discussion (host)
  vote                   open voting (host)
  cast PLAYERID          vote for a player
  restart                restart the game (host)
  leave                  leave the room
  ping                   liveness check`

var errUsage = errors.New("unknown command")

// parseCommand turns one console line into a request.
func parseCommand(line string) (*network.ClientMessage, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errUsage
	}
	args := fields[1:]

	switch fields[0] {
	case "create":
		if len(args) < 1 {
			return nil, fmt.Errorf("create needs a name")
		}
		return &network.ClientMessage{Type: network.MsgCreateRoom, PlayerName: strings.Join(args, " ")}, nil
	case "join":
		if len(args) < 2 {
			return nil, fmt.Errorf("join needs a room code and a name")
		}
		return &network.ClientMessage{Type: network.MsgJoinRoom, RoomCode: args[0], PlayerName: strings.Join(args[1:], " ")}, nil
	case "start":
		msg := &network.ClientMessage{Type: network.MsgStartGame}
		if len(args) > 0 {
			msg.Category = args[0]
		}
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, fmt.Errorf("spy count: %w", err)
			}
			msg.Settings = &network.Settings{SpyCount: &n}
		}
		return msg, nil
	case "show":
		return &network.ClientMessage{Type: network.MsgShowWord}, nil
	case "discuss":
		return &network.ClientMessage{Type: network.MsgStartDiscussion}, nil
	case "vote":
		return &network.ClientMessage{Type: network.MsgStartVoting}, nil
	case "cast":
		if len(args) != 1 {
			return nil, fmt.Errorf("cast needs a player id")
		}
		return &network.ClientMessage{Type: network.MsgVote, VotedPlayerID: args[0]}, nil
	case "restart":
		return &network.ClientMessage{Type: network.MsgRestartGame}, nil
	case "leave":
		return &network.ClientMessage{Type: network.MsgLeaveRoom}, nil
	case "ping":
		return &network.ClientMessage{Type: network.MsgPing}, nil
	}
	return nil, errUsage
}

func main() {
	host := "localhost:8080"
	if len(os.Args) > 1 {
		host = os.Args[1]
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			var ev map[string]any
			if err := json.Unmarshal(message, &ev); err != nil {
				log.Printf("<- RECV (raw): %s", message)
				continue
			}
			log.Printf("<- RECV %v: %s", ev["type"], message)
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	fmt.Println(usage)

	// Write loop
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			msg, err := parseCommand(line)
			if err != nil {
				log.Printf("%v\n%s", err, usage)
				continue
			}
			if err := c.WriteJSON(msg); err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", msg.Type)
		}
	}
}
