package registry

import (
	"testing"

	"screen-capture-overlay/src/messages"
	"screen-capture-overlay/src/save"
)

type target struct{ id string }

func (t *target) ID() string { return t.id }
func (t *target) HandleOk(messages.Ok) {}
func (t *target) HandleCancel(messages.Cancel) {}
func (t *target) HandleSave(messages.Save) {}

func TestAcquireRelease(t *testing.T) {
	r := New(nil)
	if n := r.Acquire(); n != 1 {
		t.Errorf("Acquire() = %d, want 1", n)
	}
	if n := r.Acquire(); n != 2 {
		t.Errorf("Acquire() = %d, want 2", n)
	}
	if n := r.Release(); n != 1 {
		t.Errorf("Release() = %d, want 1", n)
	}
	r.Release()
	if n := r.Release(); n != 0 {
		t.Errorf("Release() below zero = %d, want 0", n)
	}
}

func TestActivateDisplaces(t *testing.T) {
	r := New(nil)
	a, b := &target{"a"}, &target{"b"}

	r.Activate(a)
	r.Activate(b)
	if r.Active() != b {
		t.Fatal("expected b to be active")
	}
	if r.Deactivate(a) {
		t.Error("displaced session must not clear the active pointer")
	}
	if r.Active() != b {
		t.Error("b must remain active")
	}
	if !r.Deactivate(b) {
		t.Error("holder should be able to deactivate")
	}
	if r.Active() != nil {
		t.Error("expected no active session")
	}
}

func TestInstalledFlag(t *testing.T) {
	r := New(nil)
	if !r.MarkInstalled() {
		t.Error("first MarkInstalled should succeed")
	}
	if r.MarkInstalled() {
		t.Error("second MarkInstalled should be a no-op")
	}
	r.ClearInstalled()
	if r.Installed() {
		t.Error("expected flag cleared")
	}
}

func TestResetShared(t *testing.T) {
	saver := save.NewCoordinator(0)
	r := New(saver)
	r.Activate(&target{"a"})
	r.ResetShared()

	if r.Active() != nil {
		t.Error("expected active cleared")
	}
	if saver.State() != save.StateIdle {
		t.Errorf("expected saver idle, got %s", saver.State())
	}
	if r.Saver() != saver {
		t.Error("Saver() should return the injected coordinator")
	}
}
