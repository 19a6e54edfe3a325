package network

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "not json", input: "{oops", wantErr: true},
		{name: "missing type", input: `{"roomCode":"123456"}`, wantErr: true},
		{name: "create without name", input: `{"type":"createRoom","playerName":"   "}`, wantErr: true},
		{name: "create", input: `{"type":"createRoom","playerName":"Ali"}`},
		{name: "join without code", input: `{"type":"joinRoom","playerName":"Ali"}`, wantErr: true},
		{name: "join", input: `{"type":"joinRoom","roomCode":"123456","playerName":"Ali"}`},
		{name: "vote without target", input: `{"type":"vote","roomCode":"123456"}`, wantErr: true},
		{name: "name too long", input: `{"type":"createRoom","playerName":"abcdefghijklmnopqrstuvwxyzabcdefghij"}`, wantErr: true},
		{name: "unknown type passes", input: `{"type":"dance"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if tt.wantErr != (err != nil) {
				t.Fatalf("Decode(%s) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("expected ErrMalformedMessage, got %v", err)
			}
		})
	}
}

func TestDecode_Settings(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"startGame","roomCode":" 123456 ","category":"Meslekler","settings":{"spyCount":2,"allowSpyDiscussion":false}}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.RoomCode != "123456" {
		t.Errorf("room code should be trimmed, got %q", msg.RoomCode)
	}
	s := msg.Settings
	if s == nil || s.SpyCount == nil || *s.SpyCount != 2 {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.AllowSpyDiscussion == nil || *s.AllowSpyDiscussion {
		t.Error("explicit false must be kept")
	}
	if s.ShowSpyCountToPlayers != nil || s.SpyHintsEnabled != nil {
		t.Error("absent booleans must stay nil")
	}
}
