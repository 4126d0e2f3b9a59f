package notification

import (
	"fmt"
	"log"
	"path/filepath"

	"fyne.io/fyne/v2"
)

const maxContent = 200

// Notifier delivers short desktop notifications.
type Notifier interface {
	Notify(title, content string)
}

// Fyne sends notifications through the running fyne app. With no app it only logs.
type Fyne struct {
	App fyne.App
}

func (f Fyne) Notify(title, content string) {
	content = truncate(content)
	log.Printf("Notification: %s: %s", title, content)
	app := f.App
	if app == nil {
		app = fyne.CurrentApp()
	}
	if app == nil {
		return
	}
	app.SendNotification(fyne.NewNotification(title, content))
}

// SaveResult reports the outcome of a save flow.
func SaveResult(n Notifier, path string, success bool) {
	if n == nil {
		return
	}
	switch {
	case success:
		n.Notify("Screenshot saved", fmt.Sprintf("Saved %s to %s", filepath.Base(path), filepath.Dir(path)))
	case path != "":
		n.Notify("Screenshot not saved", fmt.Sprintf("Could not write %s", path))
	}
}

// ShowBlockingError reports a startup failure the user must see.
func ShowBlockingError(n Notifier, title, message string) {
	log.Printf("%s: %s", title, message)
	if n != nil {
		n.Notify(title, message)
	}
}

func truncate(text string) string {
	r := []rune(text)
	if len(r) > maxContent {
		return string(r[:maxContent]) + "..."
	}
	return text
}
