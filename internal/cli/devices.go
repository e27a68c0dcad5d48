package cli

import (
	"fmt"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/skyplay/internal/core"
)

var devicesPick bool

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available Spotify devices",
	Long: `Lists the Spotify Connect devices visible to your account. The list is a
snapshot; devices appear and disappear as Spotify apps open and close.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVarP(&devicesPick, "pick", "p", false, "pick a device and copy its id to the clipboard")
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	controller, err := newController(cfg)
	if err != nil {
		return err
	}

	devices, err := controller.Devices(cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		if devices == nil {
			devices = []core.Device{}
		}
		return printJSON(devices)
	}
	if len(devices) == 0 {
		fmt.Println("No devices found. Please open the Spotify app.")
		return nil
	}
	if devicesPick {
		return pickDevice(devices)
	}

	table := NewTable("", "NAME", "TYPE", "VOLUME", "ID")
	for _, d := range devices {
		table.Row(StatusIcon(d.IsActive), d.Name, string(d.Type), volumeString(d.Volume), dimStyle.Render(d.ID))
	}
	table.Flush()
	return nil
}

func volumeString(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v) + "%"
}

func deviceLabel(d core.Device) string {
	label := d.Name
	if d.Type != "" {
		label = fmt.Sprintf("%s (%s)", d.Name, d.Type)
	}
	if d.IsActive {
		label += " [active]"
	}
	return label
}

func pickDevice(devices []core.Device) error {
	options := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		options = append(options, huh.NewOption(deviceLabel(d), d.ID))
	}

	var selectedID string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a device").
				Description("Its id is copied for use as device_id in tool calls").
				Options(options...).
				Value(&selectedID),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	if err := clipboard.WriteAll(selectedID); err != nil {
		fmt.Println(selectedID)
		return nil
	}
	fmt.Printf("Copied device id %s to the clipboard.\n", selectedID)
	return nil
}
