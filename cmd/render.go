package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"cyberdrum/voice"
)

var (
	renderRate int
	renderOut  string
)

func init() {
	renderCmd.Flags().IntVar(&renderRate, "rate", 44100, "sample rate")
	renderCmd.Flags().StringVar(&renderOut, "out", ".", "output directory")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render [voice...]",
	Short: "Render voices to WAV files",
	Long: `Renders each named voice (all eight when none are given) through the same
synthesis path used at runtime and writes <voice>.wav into the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := parseTypes(args)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(renderOut, 0755); err != nil {
			return err
		}

		noise := voice.NewNoiseSource()
		for _, t := range types {
			path, peak, err := renderOne(t, noise)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s  peak %.3f\n", t, path, peak)
		}
		return nil
	},
}

func parseTypes(args []string) ([]voice.Type, error) {
	if len(args) == 0 {
		return voice.Types(), nil
	}
	var types []voice.Type
	for _, a := range args {
		t, err := voice.ParseType(a)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func renderOne(t voice.Type, noise *voice.NoiseSource) (string, float32, error) {
	buf, err := voice.Render(t, renderRate, noise)
	if err != nil {
		return "", 0, err
	}

	path := filepath.Join(renderOut, strings.ToLower(t.String())+".wav")
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	if err := voice.WriteWAV(f, buf); err != nil {
		f.Close()
		return "", 0, err
	}
	return path, buf.Peak(), f.Close()
}
