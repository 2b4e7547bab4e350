package session

import "testing"

func TestStartAndEndDialog(t *testing.T) {
	r := NewRouter(true)

	if _, ok := r.CurrentTarget(); ok {
		t.Errorf("expected no target on fresh router")
	}

	r.StartDialog(42)
	target, ok := r.CurrentTarget()
	if !ok || target != 42 {
		t.Errorf("expected target 42, got %d (%v)", target, ok)
	}

	if !r.EndDialog() {
		t.Errorf("expected EndDialog to report an active dialog")
	}
	if _, ok := r.CurrentTarget(); ok {
		t.Errorf("expected no target after EndDialog")
	}
	if r.EndDialog() {
		t.Errorf("expected second EndDialog to be a no-op")
	}
}

func TestStartDialogOverwrites(t *testing.T) {
	r := NewRouter(true)
	r.StartDialog(1)
	r.StartDialog(2)
	target, ok := r.CurrentTarget()
	if !ok || target != 2 {
		t.Errorf("expected overwrite to 2, got %d (%v)", target, ok)
	}
}

func TestGating(t *testing.T) {
	r := NewRouter(true)

	if r.GateOpen(42) {
		t.Errorf("expected gate closed by default")
	}
	r.SetUserGate(42, true)
	if !r.GateOpen(42) {
		t.Errorf("expected gate open after SetUserGate(true)")
	}
	if r.GateOpen(43) {
		t.Errorf("gate must be per-user")
	}
	r.SetUserGate(42, false)
	if r.GateOpen(42) {
		t.Errorf("expected gate closed after reset")
	}
}

func TestGatingDisabled(t *testing.T) {
	r := NewRouter(false)
	if !r.GateOpen(42) {
		t.Errorf("expected gate always open with gating disabled")
	}
	r.SetUserGate(42, false)
	if !r.GateOpen(42) {
		t.Errorf("gate writes must not close anything with gating disabled")
	}
}
