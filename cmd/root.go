package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"cyberdrum/audio"
	"cyberdrum/config"
	"cyberdrum/debug"
	"cyberdrum/midi"
	"cyberdrum/sequencer"
	"cyberdrum/theme"
	"cyberdrum/tui"
)

// headlessPeriod is how often the headless device renders
const headlessPeriod = 10 * time.Millisecond

var (
	cfgPath   string
	debugFlag bool
	headless  bool
	bpm       float64
)

var rootCmd = &cobra.Command{
	Use:   "cyberdrum",
	Short: "A 12-track step-sequencer drum machine",
	Long: `cyberdrum plays a bank of four 16-step patterns over twelve synthesized
drum tracks. Voices are rendered once at startup and scheduled ahead of the
audio clock so timing holds while the terminal UI redraws.`,
	SilenceUsage: true,
	RunE:         runSession,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.config/cyberdrum/config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write a debug log to ~/.config/cyberdrum/debug.log")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "run the clock without a sound card")
	rootCmd.Flags().Float64Var(&bpm, "bpm", 0, "start tempo (overrides the saved one)")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFrom(cfgPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if debugFlag || cfg.Debug {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
		}
	}
	return cfg, nil
}

// openOutput acquires the configured audio device
func openOutput(cfg *config.Config) (audio.Device, error) {
	if headless || cfg.Audio.Headless {
		debug.Log("audio", "headless output at %dHz", cfg.Audio.SampleRate)
		return audio.OpenHeadless(cfg.Audio.SampleRate, headlessPeriod), nil
	}
	buffer := time.Duration(cfg.Audio.BufferMillis) * time.Millisecond
	return audio.Open(cfg.Audio.SampleRate, buffer)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer debug.Disable()

	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		debug.Log("tui", "palette %s: %v, using default", cfg.UI.Palette, err)
		th = theme.New(nil)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Without an output the editor still runs; Play reports the error
	var out audio.Output
	dev, err := openOutput(cfg)
	switch {
	case err == nil:
		out = dev
		defer dev.Close()
	case errors.Is(err, audio.ErrUnavailable):
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		debug.Log("audio", "%v", err)
	default:
		return err
	}

	manager := sequencer.NewManager(cfg, out)
	if cmd.Flags().Changed("bpm") {
		manager.SetTempo(bpm)
	}
	manager.Start(ctx)
	defer manager.Close()

	deviceMgr := midi.NewDeviceManager(cfg.WantsInput)
	go deviceMgr.Run(ctx)
	manager.ListenMIDI(deviceMgr.Notes())

	if cfg.MIDI.Mirror && cfg.MIDI.OutputPort != "" {
		mirror, err := midi.OpenMirror(cfg.MIDI.OutputPort, cfg.MIDI.Channel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: midi mirror: %v\n", err)
		} else {
			go mirror.Run(ctx)
			defer mirror.Close()
			manager.SetMirror(mirror)
		}
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return runUnattended(ctx, manager)
	}

	m := tui.NewModel(manager, deviceMgr, th)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// runUnattended plays the saved bank until interrupted, for runs without a
// terminal.
func runUnattended(ctx context.Context, manager *sequencer.Manager) error {
	fmt.Println("cyberdrum: no terminal, playing until interrupted")
	if err := manager.Play(); err != nil {
		return err
	}
	<-ctx.Done()
	manager.Stop()
	return nil
}
