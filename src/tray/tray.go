package tray

import (
	"fmt"
	"log"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
)

type Config struct {
	Title     string
	Hotkey    string
	OnCapture func()
	OnAbout   func(text string)
	OnExit    func()
}

// Tray is the resident's system tray menu.
type Tray struct {
	cfg     Config
	app     desktop.App
	menu    *fyne.Menu
	capture *fyne.MenuItem

	mu    sync.Mutex
	extra string
}

// New builds the menu and, when the app supports a system tray, installs it.
// The returned Tray is usable either way.
func New(app fyne.App, cfg Config) (*Tray, bool) {
	t := &Tray{cfg: cfg}
	t.menu = t.buildMenu()
	d, ok := app.(desktop.App)
	if !ok {
		log.Printf("Tray: system tray not supported by this driver")
		return t, false
	}
	t.app = d
	d.SetSystemTrayIcon(Icon)
	d.SetSystemTrayMenu(t.menu)
	return t, true
}

func (t *Tray) buildMenu() *fyne.Menu {
	t.capture = fyne.NewMenuItem(t.captureLabel(false), func() {
		if t.cfg.OnCapture != nil {
			t.cfg.OnCapture()
		}
	})
	about := fyne.NewMenuItem("About", func() {
		if t.cfg.OnAbout != nil {
			t.cfg.OnAbout(t.AboutText())
		}
	})
	quit := fyne.NewMenuItem("Quit", func() {
		if t.cfg.OnExit != nil {
			t.cfg.OnExit()
		}
	})
	quit.IsQuit = true
	return fyne.NewMenu(t.cfg.Title, t.capture, about, fyne.NewMenuItemSeparator(), quit)
}

func (t *Tray) captureLabel(busy bool) string {
	if busy {
		return "Capturing..."
	}
	if t.cfg.Hotkey == "" {
		return "Capture"
	}
	return fmt.Sprintf("Capture (%s)", t.cfg.Hotkey)
}

// SetBusy greys out the capture item while a capture is open.
func (t *Tray) SetBusy(busy bool) {
	t.capture.Label = t.captureLabel(busy)
	t.capture.Disabled = busy
	if t.app != nil {
		fyne.Do(func() { t.menu.Refresh() })
	}
}

// SetAboutExtra appends a line, such as the resident port, to the About text.
func (t *Tray) SetAboutExtra(extra string) {
	t.mu.Lock()
	t.extra = extra
	t.mu.Unlock()
}

func (t *Tray) AboutText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	text := t.cfg.Title
	if t.cfg.Hotkey != "" {
		text += fmt.Sprintf("\nHotkey: %s", t.cfg.Hotkey)
	}
	if t.extra != "" {
		text += "\n" + t.extra
	}
	return text
}

// Menu exposes the tray menu.
func (t *Tray) Menu() *fyne.Menu { return t.menu }
