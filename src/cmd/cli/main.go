package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-capture-overlay/src/capture"
	"screen-capture-overlay/src/config"
	"screen-capture-overlay/src/display"
	"screen-capture-overlay/src/save"
	"screen-capture-overlay/src/singleinstance"
)

var errNoResident = errors.New("no resident is running")

type cliOptions struct {
	out        string
	delegate   bool
	jsonOutput bool
	verbose    bool
	timeout    time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"capture-cli"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "capture-cli",
		Short:         "Capture the display under the pointer to PNG, or ask the resident for an interactive capture",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(cmd.OutOrStdout(), *opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "", "Output PNG path (default: timestamped name in the current directory)")
	cmd.Flags().BoolVar(&opts.delegate, "delegate", false, "Ask the running resident to open the capture overlay")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Capture or delegation timeout")
	cmd.MarkFlagsMutuallyExclusive("out", "delegate")

	return cmd
}

func runWithOptions(stdout io.Writer, opts cliOptions) error {
	// Configure logging BEFORE any other operations.
	if !opts.verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stderr)
	}

	// .env carries SINGLEINSTANCE_PORT_* for delegation
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if opts.delegate {
		return delegate(ctx, singleinstance.NewClient())
	}

	res, err := captureToFile(ctx, display.NewScreenResolver(nil), capture.NewProvider(), opts.out, time.Now())
	if err != nil {
		return err
	}
	return outputResult(stdout, res, opts.jsonOutput)
}

func delegate(ctx context.Context, client singleinstance.Client) error {
	delegated, err := client.TryCapture(ctx)
	if err != nil {
		return fmt.Errorf("resident refused capture: %w", err)
	}
	if !delegated {
		return errNoResident
	}
	log.Printf("Capture overlay opened in resident")
	return nil
}

// CaptureResult describes one written capture.
type CaptureResult struct {
	Path      string          `json:"path"`
	Display   display.Display `json:"display"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Timestamp string          `json:"timestamp"`
	Duration  float64         `json:"duration_seconds"`
}

func captureToFile(ctx context.Context, r display.Resolver, c capture.Capturer, out string, now time.Time) (CaptureResult, error) {
	d, err := r.Resolve()
	if err != nil {
		return CaptureResult{}, fmt.Errorf("failed to resolve display: %w", err)
	}
	log.Printf("Capturing %s", d)

	start := time.Now()
	shot, err := c.Capture(ctx, d)
	if err != nil {
		return CaptureResult{}, err
	}
	data, err := capture.DecodeDataURI(shot.Image)
	if err != nil {
		return CaptureResult{}, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return CaptureResult{}, fmt.Errorf("capture is not a valid PNG: %w", err)
	}

	if out == "" {
		out = save.FileName(now)
	}
	if !strings.HasSuffix(strings.ToLower(out), ".png") {
		out += ".png"
	}
	if err := save.WriteFile(out, data); err != nil {
		return CaptureResult{}, err
	}
	return CaptureResult{
		Path:      out,
		Display:   shot.Display,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Timestamp: now.UTC().Format(time.RFC3339),
		Duration:  time.Since(start).Seconds(),
	}, nil
}

func outputResult(w io.Writer, res CaptureResult, jsonOutput bool) error {
	if !jsonOutput {
		_, err := fmt.Fprintln(w, res.Path)
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(res); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		for _, name := range []string{"out", "delegate", "json", "verbose", "timeout"} {
			arg := normalized[i]
			switch {
			case arg == "-"+name:
				normalized[i] = "--" + name
			case strings.HasPrefix(arg, "-"+name+"="):
				normalized[i] = "-" + arg
			}
		}
	}
	return normalized
}
