package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/skyplay/internal/core"
)

const progressWidth = 30

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback status",
	Long:  `Shows what Spotify is playing, on which device, and how far along it is.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	controller, err := newController(cfg)
	if err != nil {
		return err
	}

	state, err := controller.PlaybackState(cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		if !state.HasTrack() {
			return printJSON(map[string]any{
				"playing": false,
				"message": "No active playback",
			})
		}
		return printJSON(state)
	}

	if !state.HasTrack() {
		fmt.Println("No active playback")
		return nil
	}
	fmt.Println(formatStatus(state))
	return nil
}

func formatStatus(state *core.PlaybackState) string {
	track := state.Track
	summary := track.Summary()

	icon := "⏸"
	if state.IsPlaying {
		icon = "▶"
	}

	out := fmt.Sprintf("%s %s\n  %s", icon, titleStyle.Render(summary.Name), summary.Artist)
	if summary.Album != "" {
		out += dimStyle.Render(" · " + summary.Album)
	}
	out += fmt.Sprintf("\n  %s %s / %s",
		FormatProgress(state.ProgressMS, track.DurationMS, progressWidth),
		FormatDuration(state.ProgressMS/1000),
		FormatDuration(track.DurationMS/1000),
	)
	if state.Device != nil {
		out += fmt.Sprintf("\n  on %s", state.Device.Name)
		if state.Device.Volume != nil {
			out += fmt.Sprintf(" (%d%%)", *state.Device.Volume)
		}
	}
	if state.Shuffle {
		out += dimStyle.Render("  shuffle")
	}
	return out
}
