package lang

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zh.yaml")
	content := "operation_ok_title: 确定\noperation_cancel_title: 取消\ncustom_key: passthrough\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if l[OperationOkTitle] != "确定" {
		t.Errorf("expected ok title, got %q", l[OperationOkTitle])
	}
	if l["custom_key"] != "passthrough" {
		t.Errorf("unknown keys must be kept, got %q", l["custom_key"])
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("- not\n- a map\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-mapping YAML")
	}
}

func TestMerge(t *testing.T) {
	base := Lang{OperationOkTitle: "OK", OperationSaveTitle: "Save"}
	got := base.Merge(Lang{OperationOkTitle: "Done"})

	if got[OperationOkTitle] != "Done" || got[OperationSaveTitle] != "Save" {
		t.Errorf("unexpected merge result: %v", got)
	}
	if base[OperationOkTitle] != "OK" {
		t.Error("Merge must not modify the receiver")
	}
}
