package overlay

import (
	"context"
	"errors"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// SaveDialog asks the user for a destination file. An empty path with a nil
// error means the user cancelled.
type SaveDialog interface {
	ShowSave(ctx context.Context, parent Window, name string) (string, error)
}

var errNoFyneParent = errors.New("save dialog needs a fyne overlay window")

// FyneSaveDialog shows fyne's file-save dialog inside the overlay window.
type FyneSaveDialog struct {
	Dir string // initial directory, optional
}

func (d FyneSaveDialog) ShowSave(ctx context.Context, parent Window, name string) (string, error) {
	w, ok := FyneWindow(parent)
	if !ok {
		return "", errNoFyneParent
	}

	type outcome struct {
		path string
		err  error
	}
	done := make(chan outcome, 1)

	fyne.Do(func() {
		dlg := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				done <- outcome{err: err}
				return
			}
			if wc == nil {
				done <- outcome{}
				return
			}
			// The file now exists empty; the caller writes it by path.
			path := wc.URI().Path()
			if cerr := wc.Close(); cerr != nil {
				log.Printf("SaveDialog: closing %s: %v", path, cerr)
			}
			done <- outcome{path: path}
		}, w)
		dlg.SetFileName(name)
		dlg.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
		if d.Dir != "" {
			if dir, err := storage.ListerForURI(storage.NewFileURI(d.Dir)); err == nil {
				dlg.SetLocation(dir)
			} else {
				log.Printf("SaveDialog: ignoring directory %s: %v", d.Dir, err)
			}
		}
		dlg.Resize(w.Canvas().Size())
		dlg.Show()
	})

	select {
	case o := <-done:
		return o.path, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
