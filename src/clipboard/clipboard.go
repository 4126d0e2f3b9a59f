package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
	initErr error
	once    sync.Once
)

// Init prepares the system clipboard. Safe to call more than once.
func Init() error {
	once.Do(func() { initErr = clipboard.Init() })
	return initErr
}

// WriteImage puts a PNG on the clipboard. Writes are mutex-guarded to prevent
// corruption under parallel writes.
func WriteImage(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty image")
	}
	if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("clipboard image is not a PNG: %w", err)
	}
	if err := Init(); err != nil {
		return fmt.Errorf("clipboard unavailable: %w", err)
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

// System adapts the package functions to the session's clipboard collaborator.
type System struct{}

func (System) WriteImage(data []byte) error { return WriteImage(data) }
