package main

import (
	"context"
	"errors"
	"testing"

	"screen-capture-overlay/src/singleinstance"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"screen-capture-overlay", "-capture", "-window-policy", "reuse"},
			out:  []string{"screen-capture-overlay", "--capture", "--window-policy", "reuse"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"screen-capture-overlay", "-capture=true", "-surface=remote"},
			out:  []string{"screen-capture-overlay", "--capture=true", "--surface=remote"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"screen-capture-overlay", "--capture", "--other", "-x"},
			out:  []string{"screen-capture-overlay", "--capture", "--other", "-x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected len=%d, got %d", len(tt.out), len(got))
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--capture", "--window-policy", "reuse", "--surface", "remote"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !opts.capture {
		t.Fatal("Expected capture=true")
	}
	if opts.windowPolicy != "reuse" || opts.surface != "remote" {
		t.Fatalf("Unexpected options %+v", *opts)
	}
}

type fakeClient struct {
	delegated bool
	err       error
	called    bool
}

func (f *fakeClient) TryCapture(ctx context.Context) (bool, error) {
	f.called = true
	return f.delegated, f.err
}

func TestHandleCaptureWithDelegation(t *testing.T) {
	tests := []struct {
		name         string
		client       *fakeClient
		wantFallback bool
	}{
		{"delegated", &fakeClient{delegated: true}, false},
		{"no resident", &fakeClient{}, true},
		{"delegation error", &fakeClient{delegated: true, err: errors.New("reset by peer")}, true},
		{"resident busy", &fakeClient{delegated: true, err: singleinstance.ErrBusy}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallbackCalled := false
			handleCaptureWithDelegation(tt.client, func() { fallbackCalled = true })
			if !tt.client.called {
				t.Fatal("Expected client.TryCapture to be called")
			}
			if fallbackCalled != tt.wantFallback {
				t.Fatalf("fallback called=%v, want %v", fallbackCalled, tt.wantFallback)
			}
		})
	}
}
