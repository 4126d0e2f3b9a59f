package hotkey

import (
	"image"
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// Listener watches global input for one key combination and remembers the last
// pointer position, which picks the display a capture opens on.
type Listener struct {
	combo string
	keys  []keyState

	mu       sync.Mutex
	pointer  image.Point
	hasPoint bool

	stop func()
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// New parses combo ("Ctrl+Alt+A"). Keys that cannot be mapped are logged and
// skipped; a combo with no usable keys never fires.
func New(combo string) *Listener {
	l := &Listener{combo: combo}
	for _, name := range parseHotkey(combo) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			log.Printf("Hotkey: cannot map key '%s' to rawcodes, hotkey may not work correctly", name)
			continue
		}
		l.keys = append(l.keys, keyState{name: name, rawcodes: codes})
	}
	return l
}

// Pointer reports the last observed pointer position. It satisfies
// display.PointerFunc.
func (l *Listener) Pointer() (image.Point, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pointer, l.hasPoint
}

// Start hooks global input and calls fire on every completed combination.
// fire runs on the hook goroutine and must not block.
func (l *Listener) Start(fire func()) bool {
	if len(l.keys) == 0 {
		log.Printf("Hotkey: no valid keys in hotkey configuration '%s'", l.combo)
		return false
	}
	evChan := gohook.Start()
	if evChan == nil {
		log.Printf("Hotkey: gohook.Start() returned nil channel")
		return false
	}
	l.stop = gohook.End
	log.Printf("Hotkey: listening for %s", l.combo)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Hotkey: PANIC in hook goroutine: %v", r)
			}
		}()
		for ev := range evChan {
			if l.handle(ev) && fire != nil {
				fire()
			}
		}
		log.Printf("Hotkey: event channel closed")
	}()
	return true
}

// Stop unhooks global input.
func (l *Listener) Stop() {
	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
}

// handle folds one input event into the listener state and reports whether
// it completed the combination.
func (l *Listener) handle(ev gohook.Event) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch ev.Kind {
	case gohook.MouseMove, gohook.MouseDrag, gohook.MouseDown:
		l.pointer = image.Pt(int(ev.X), int(ev.Y))
		l.hasPoint = true
		return false
	case gohook.KeyDown:
		l.setPressed(ev.Rawcode, true)
		for i := range l.keys {
			if !l.keys[i].pressed {
				return false
			}
		}
		log.Printf("Hotkey: %s detected", l.combo)
		for i := range l.keys {
			l.keys[i].pressed = false
		}
		return true
	case gohook.KeyUp:
		l.setPressed(ev.Rawcode, false)
	}
	return false
}

func (l *Listener) setPressed(rawcode uint16, pressed bool) {
	for i := range l.keys {
		for _, code := range l.keys[i].rawcodes {
			if code == rawcode {
				l.keys[i].pressed = pressed
				break
			}
		}
	}
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+a" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}
	return keys
}

var specialKeys = map[string][]uint16{
	"ctrl":        {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":         {164, 165}, // VK_LMENU, VK_RMENU
	"shift":       {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":         {91, 92},   // VK_LWIN, VK_RWIN
	"space":       {32},
	"enter":       {13},
	"return":      {13},
	"esc":         {27},
	"escape":      {27},
	"tab":         {9},
	"backspace":   {8},
	"delete":      {46},
	"del":         {46},
	"insert":      {45},
	"ins":         {45},
	"home":        {36},
	"end":         {35},
	"pageup":      {33},
	"pgup":        {33},
	"pagedown":    {34},
	"pgdn":        {34},
	"left":        {37},
	"up":          {38},
	"right":       {39},
	"down":        {40},
	"printscreen": {44}, // VK_SNAPSHOT
	"prtsc":       {44},
}

// keyNameToRawcodes maps a key name to its Windows virtual key rawcodes.
// Modifiers return both left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))
	if keyName == "win" || keyName == "super" {
		keyName = "cmd"
	}
	if codes, ok := specialKeys[keyName]; ok {
		return codes
	}
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}
	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)} // VK_F1 = 112
		}
	}
	log.Printf("Hotkey: unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
