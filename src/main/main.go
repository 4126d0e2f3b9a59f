package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"screen-capture-overlay/src/config"
	"screen-capture-overlay/src/eventloop"
	"screen-capture-overlay/src/hotkey"
	"screen-capture-overlay/src/logutil"
	"screen-capture-overlay/src/notification"
	"screen-capture-overlay/src/overlay"
	"screen-capture-overlay/src/runtimeinit"
	"screen-capture-overlay/src/session"
	"screen-capture-overlay/src/singleinstance"
	"screen-capture-overlay/src/tray"
)

const appID = "io.github.screen-capture-overlay"

type mainOptions struct {
	capture      bool
	windowPolicy string
	surface      string
}

func main() {
	enableDPIAwareness()

	if err := runWithArgs(normalizeLegacyArgs(os.Args)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"screen-capture-overlay"}
	}
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-capture-overlay",
		Short:         "Resident screen capture overlay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithOptions(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.capture, "capture", false, "Open one capture in the running resident, or standalone if none runs")
	cmd.Flags().StringVar(&opts.windowPolicy, "window-policy", "", "Overlay window policy: reuse or recreate")
	cmd.Flags().StringVar(&opts.surface, "surface", "", "Rendering surface: canvas or remote")
	return cmd
}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		for _, name := range []string{"capture", "window-policy", "surface"} {
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

func runWithOptions(opts mainOptions) error {
	loadOptions := config.LoadOptions{
		WindowPolicyOverride: opts.windowPolicy,
		SurfaceOverride:      opts.surface,
	}

	if opts.capture {
		// Load .env early so SINGLEINSTANCE_PORT_* are applied before the delegation scan
		_, _ = config.LoadWithOptions(loadOptions)
		handleCaptureWithDelegation(singleinstance.NewClient(), func() {
			if err := runStandalone(loadOptions); err != nil {
				fmt.Fprintf(os.Stderr, "Capture failed: %v\n", err)
				os.Exit(1)
			}
		})
		return nil
	}
	return runResident(loadOptions)
}

// handleCaptureWithDelegation asks a running resident to capture and falls back
// to a standalone capture when none answers.
func handleCaptureWithDelegation(client singleinstance.Client, fallback func()) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	delegated, err := client.TryCapture(ctx)
	switch {
	case delegated && err == nil:
		log.Printf("Delegated capture to resident")
	case errors.Is(err, singleinstance.ErrBusy):
		log.Printf("Resident is already capturing")
	case err != nil:
		log.Printf("Delegation error: %v; falling back to standalone", err)
		fallback()
	default:
		log.Printf("No resident detected, running standalone")
		fallback()
	}
}

func runResident(loadOptions config.LoadOptions) error {
	// Load .env early so SINGLEINSTANCE_PORT_* are available for pre-flight
	_, _ = config.LoadWithOptions(loadOptions)
	probe, cancelProbe := context.WithTimeout(context.Background(), time.Second)
	port, running := singleinstance.DetectResidentPort(probe)
	cancelProbe()
	if running {
		start, end := singleinstance.PortRange()
		log.Printf("Pre-flight: resident found on port %d (range %d-%d)", port, start, end)
		fmt.Printf("one is already running on port %d\n", port)
		return fmt.Errorf("resident already running on port %d", port)
	}

	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  loadOptions,
		SetupLogging: logutil.Setup,
	})
	if err != nil {
		return err
	}
	cfg := rt.Config
	logMonitorConfiguration()
	log.Printf("Screen capture overlay initialized")
	log.Printf("Hotkey: %s, window policy: %s, surface: %s", cfg.Hotkey, rt.Policy, cfg.Surface)

	a := app.NewWithID(appID)
	a.SetIcon(tray.Icon)
	notifier := notification.Fyne{App: a}

	keys := hotkey.New(cfg.Hotkey)
	assembly, err := rt.NewSession(a, keys.Pointer, notifier)
	if err != nil {
		return fmt.Errorf("failed to create capture session: %w", err)
	}
	defer assembly.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quit := func() {
		cancel()
		fyne.Do(a.Quit)
	}

	var loop *eventloop.Loop
	trayMenu, _ := tray.New(a, tray.Config{
		Title:     "Screen Capture",
		Hotkey:    cfg.Hotkey,
		OnCapture: func() { loop.Trigger("tray") },
		OnAbout:   func(text string) { notifier.Notify("About", text) },
		OnExit:    quit,
	})
	srv := singleinstance.NewServer()
	loop = eventloop.New(assembly.Session, eventloop.Options{
		Server:    srv,
		Indicator: trayMenu,
		OnError: func(err error) {
			notification.ShowBlockingError(notifier, "Capture failed", err.Error())
		},
	})

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("failed to claim resident port: %w", err)
	}
	trayMenu.SetAboutExtra(fmt.Sprintf("Resident TCP port: %d", srv.Port()))

	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event loop stopped: %v", err)
			quit()
		}
	}()

	if keys.Start(func() { loop.Trigger("hotkey") }) {
		defer keys.Stop()
	}

	// Handle SIGINT/SIGTERM
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-ch:
			quit()
		case <-ctx.Done():
		}
	}()

	a.Run()
	return nil
}

// runStandalone opens one capture without a resident and returns once the
// overlay window has gone away.
func runStandalone(loadOptions config.LoadOptions) error {
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		LoadOptions:  loadOptions,
		SetupLogging: logutil.Setup,
	})
	if err != nil {
		return err
	}
	// a hidden window would keep the process alive with nothing to show
	rt.Policy = overlay.Recreate

	a := app.NewWithID(appID)
	keys := hotkey.New(rt.Config.Hotkey)
	assembly, err := rt.NewSession(a, keys.Pointer, notification.Fyne{App: a})
	if err != nil {
		return err
	}
	defer assembly.Close()

	startErr := make(chan error, 1)
	assembly.Session.Observe(session.Hooks{
		OnWindowClosed: func(overlay.Window) { fyne.Do(a.Quit) },
	})
	a.Lifecycle().SetOnStarted(func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := assembly.Session.StartCapture(ctx); err != nil {
				startErr <- err
				fyne.Do(a.Quit)
			}
		}()
	})

	a.Run()
	select {
	case err := <-startErr:
		return err
	default:
		return nil
	}
}
