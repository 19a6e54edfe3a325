package session

import (
	"net"
	"testing"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent [][]byte
}

func (m *MockConnection) Send(data []byte) error {
	m.sent = append(m.sent, data)
	return nil
}
func (m *MockConnection) Ping() error          { return nil }
func (m *MockConnection) Close() error         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr { return &net.TCPAddr{} }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil || manager.players == nil {
		t.Fatal("NewManager should initialize its maps")
	}
}

func TestManager_Add_Sessions_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	// Test Add
	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	// Test Sessions
	all := manager.Sessions()
	if len(all) != 1 || all[0] != sess {
		t.Fatal("Sessions should return the added session instance")
	}

	// Test Remove
	if _, _, removed := manager.Remove(sessionID); !removed {
		t.Fatal("First Remove should report true")
	}
	if _, _, removed := manager.Remove(sessionID); removed {
		t.Fatal("Second Remove should be a no-op")
	}
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	if len(manager.Sessions()) != 0 {
		t.Fatal("Sessions should not include the removed session")
	}
}

func TestManager_BindLookupUnbind(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})
	manager.Add(sess)

	if !manager.Bind(sess, "123456", "p1") {
		t.Fatal("Bind should succeed for a registered session")
	}
	if found, ok := manager.Lookup("p1"); !ok || found != sess {
		t.Fatal("Lookup should find the bound session")
	}
	code, player, ok := sess.Binding()
	if !ok || code != "123456" || player != "p1" {
		t.Errorf("Unexpected binding %s/%s", code, player)
	}

	// rebinding drops the previous player index
	manager.Bind(sess, "654321", "p2")
	if _, ok := manager.Lookup("p1"); ok {
		t.Error("Old player should no longer resolve")
	}

	manager.Unbind("p2")
	manager.Unbind("p2")
	if _, _, ok := sess.Binding(); ok {
		t.Error("Session should be unbound")
	}
	if _, ok := manager.Lookup("p2"); ok {
		t.Error("Lookup should fail after Unbind")
	}
}

func TestManager_RemoveDropsPlayerIndex(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})
	manager.Add(sess)
	manager.Bind(sess, "123456", "p1")

	code, player, removed := manager.Remove("s1")
	if !removed || code != "123456" || player != "p1" {
		t.Errorf("Remove should report the binding it dropped, got %s/%s/%v", code, player, removed)
	}
	if _, ok := manager.Lookup("p1"); ok {
		t.Error("Removing a session should drop its player index")
	}
}

func TestManager_BindAfterRemove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("s1", &MockConnection{})
	manager.Add(sess)

	if _, player, removed := manager.Remove("s1"); !removed || player != "" {
		t.Fatalf("Unbound session should be removed without a player, got %q", player)
	}
	if manager.Bind(sess, "123456", "p1") {
		t.Fatal("Bind should refuse a removed session")
	}
	if _, ok := manager.Lookup("p1"); ok {
		t.Error("A removed session must not be indexed by player")
	}
	if _, _, ok := sess.Binding(); ok {
		t.Error("A refused Bind should leave the session unbound")
	}
}

func TestManager_Sweep(t *testing.T) {
	manager := NewManager()
	a := NewSession("a", &MockConnection{})
	b := NewSession("b", &MockConnection{})
	manager.Add(a)
	manager.Add(b)

	stale, probe := manager.Sweep()
	if len(stale) != 0 || len(probe) != 2 {
		t.Fatalf("First sweep should probe everyone, stale=%d probe=%d", len(stale), len(probe))
	}

	a.MarkAlive()
	stale, probe = manager.Sweep()
	if len(stale) != 1 || stale[0] != b {
		t.Errorf("b never answered and should be stale, got %v", stale)
	}
	if len(probe) != 1 || probe[0] != a {
		t.Errorf("a answered and should be probed again, got %v", probe)
	}
}
