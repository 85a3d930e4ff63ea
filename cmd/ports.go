package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"cyberdrum/midi"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input and output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ins, outs, err := midi.Ports()
		if err != nil {
			return fmt.Errorf("%w (on macOS: sudo killall coreaudiod midiserver)", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "=== MIDI Input Ports ===")
		for i, p := range ins {
			fmt.Fprintf(w, "  %d: %s\n", i, p)
		}
		fmt.Fprintln(w, "\n=== MIDI Output Ports ===")
		for i, p := range outs {
			fmt.Fprintf(w, "  %d: %s\n", i, p)
		}
		return nil
	},
}
