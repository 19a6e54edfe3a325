package state

import (
	"testing"
)

func TestMachine_InitialState(t *testing.T) {
	sm := NewMachine(Waiting)

	if sm.Current() != Waiting {
		t.Errorf("Expected initial phase %s, got %s", Waiting, sm.Current())
	}
}

func TestMachine_UnregisteredTransitionRejected(t *testing.T) {
	sm := NewMachine(Waiting)

	if err := sm.ChangeState(Voting); err != ErrTransitionNotAllowed {
		t.Fatalf("Expected ErrTransitionNotAllowed, got %v", err)
	}
	if sm.Current() != Waiting {
		t.Errorf("Phase should not change on a rejected transition, got %s", sm.Current())
	}
}

func TestMachine_AddAndUseTransition(t *testing.T) {
	sm := NewMachine(Waiting)
	sm.AddTransition(Waiting, Starting, nil)
	sm.AddTransition(Starting, WordShown, func() bool { return false })

	// --- Test valid transition ---
	if err := sm.ChangeState(Starting); err != nil {
		t.Fatalf("Expected transition to be allowed, got %v", err)
	}
	if sm.Current() != Starting {
		t.Errorf("Expected phase %s, got %s", Starting, sm.Current())
	}

	// --- Test blocked transition ---
	if sm.Can(WordShown) {
		t.Error("Can should report false when the guard rejects")
	}
	if err := sm.ChangeState(WordShown); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed, got %v", err)
	}
	if sm.Current() != Starting {
		t.Errorf("Expected phase to remain %s, got %s", Starting, sm.Current())
	}
}

func TestMachine_GuardIsEvaluatedEachTime(t *testing.T) {
	open := false
	sm := NewMachine(Waiting)
	sm.AddTransition(Waiting, Discussion, func() bool { return open })

	if sm.Can(Discussion) {
		t.Fatal("guard closed, transition should be blocked")
	}
	open = true
	if err := sm.ChangeState(Discussion); err != nil {
		t.Fatalf("guard open, expected success, got %v", err)
	}
}

func TestMachine_OnEnterHooks(t *testing.T) {
	sm := NewMachine(Waiting)
	sm.AddTransition(Waiting, Voting, nil)

	var entered []Phase
	sm.OnEnter(Voting, func(from Phase) { entered = append(entered, from) })
	sm.OnEnter(Waiting, func(from Phase) { entered = append(entered, from) })

	if err := sm.ChangeState(Voting); err != nil {
		t.Fatal(err)
	}
	sm.Reset(Waiting)

	if len(entered) != 2 || entered[0] != Waiting || entered[1] != Voting {
		t.Errorf("Unexpected hook calls: %v", entered)
	}
}

func TestMachine_ResetBypassesTable(t *testing.T) {
	sm := NewMachine(Finished)
	sm.Reset(Waiting)
	if sm.Current() != Waiting {
		t.Errorf("Reset should force the phase, got %s", sm.Current())
	}
}
