package tray

import (
	"strings"
	"testing"

	"fyne.io/fyne/v2/test"
)

func TestMenuActions(t *testing.T) {
	var captured, exited int
	var about string
	tr, installed := New(test.NewTempApp(t), Config{
		Title:     "Screen Capture",
		Hotkey:    "Ctrl+Alt+A",
		OnCapture: func() { captured++ },
		OnAbout:   func(text string) { about = text },
		OnExit:    func() { exited++ },
	})
	if installed {
		t.Log("test driver reports system tray support")
	}

	items := tr.Menu().Items
	if len(items) != 4 {
		t.Fatalf("expected 4 menu items, got %d", len(items))
	}
	if items[0].Label != "Capture (Ctrl+Alt+A)" {
		t.Errorf("capture label = %q", items[0].Label)
	}
	if !items[3].IsQuit {
		t.Error("last item should be the quit item")
	}

	items[0].Action()
	tr.SetAboutExtra("Resident TCP port: 49500")
	items[1].Action()
	items[3].Action()

	if captured != 1 || exited != 1 {
		t.Fatalf("captured=%d exited=%d", captured, exited)
	}
	if !strings.Contains(about, "Hotkey: Ctrl+Alt+A") || !strings.Contains(about, "49500") {
		t.Errorf("about text = %q", about)
	}
}

func TestSetBusy(t *testing.T) {
	tr, _ := New(test.NewTempApp(t), Config{Title: "Screen Capture"})
	tr.SetBusy(true)
	item := tr.Menu().Items[0]
	if !item.Disabled || item.Label != "Capturing..." {
		t.Fatalf("busy item = %q disabled=%v", item.Label, item.Disabled)
	}
	tr.SetBusy(false)
	if item.Disabled || item.Label != "Capture" {
		t.Fatalf("idle item = %q disabled=%v", item.Label, item.Disabled)
	}
}
