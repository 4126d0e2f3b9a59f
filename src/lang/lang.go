package lang

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Lang is a partial language pack for the rendering surface. Keys are passed
// through untouched; the surface ignores the ones it does not know.
type Lang map[string]string

// Keys understood by the bundled surface document.
const (
	MagnifierPositionLabel = "magnifier_position_label"
	OperationOkTitle       = "operation_ok_title"
	OperationCancelTitle   = "operation_cancel_title"
	OperationSaveTitle     = "operation_save_title"
	OperationRedoTitle     = "operation_redo_title"
	OperationUndoTitle     = "operation_undo_title"
	OperationMosaicTitle   = "operation_mosaic_title"
	OperationTextTitle     = "operation_text_title"
	OperationBrushTitle    = "operation_brush_title"
	OperationArrowTitle    = "operation_arrow_title"
	OperationEllipseTitle  = "operation_ellipse_title"
	OperationRectTitle     = "operation_rectangle_title"
)

// Load reads a YAML mapping of key -> label.
func Load(path string) (Lang, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read language pack %s: %w", path, err)
	}
	var l Lang
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse language pack %s: %w", path, err)
	}
	return l, nil
}

// Merge returns a copy of l with patch applied on top.
func (l Lang) Merge(patch Lang) Lang {
	out := make(Lang, len(l)+len(patch))
	for k, v := range l {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
