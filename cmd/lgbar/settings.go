package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tmholter/lgbar/internal/soundbar"
	"github.com/tmholter/lgbar/internal/ui"
)

// settingApplier parses a command-line value and applies one setting.
type settingApplier func(ctx context.Context, client *soundbar.Client, value string) error

func boolSetting(set func(context.Context, *soundbar.Client, bool) error) settingApplier {
	return func(ctx context.Context, client *soundbar.Client, value string) error {
		v, err := parseOnOff(value)
		if err != nil {
			return err
		}
		return set(ctx, client, v)
	}
}

func intSetting(set func(context.Context, *soundbar.Client, int) error) settingApplier {
	return func(ctx context.Context, client *soundbar.Client, value string) error {
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value %q (expected a number)", value)
		}
		return set(ctx, client, v)
	}
}

// settingAppliers maps CLI setting names to client operations. Range
// validation happens in the client, so out-of-range values fail before
// anything is sent.
var settingAppliers = map[string]settingApplier{
	"night-mode": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetNightMode(ctx, v)
	}),
	"auto-volume": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetAutoVolume(ctx, v)
	}),
	"drc": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetDynamicRangeControl(ctx, v)
	}),
	"neuralx": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetNeuralX(ctx, v)
	}),
	"av-sync": intSetting(func(ctx context.Context, c *soundbar.Client, v int) error {
		return c.SetAVSync(ctx, v)
	}),
	"woofer": intSetting(func(ctx context.Context, c *soundbar.Client, v int) error {
		return c.SetWooferLevel(ctx, v)
	}),
	"rear": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetRearSpeakersEnabled(ctx, v)
	}),
	"rear-level": intSetting(func(ctx context.Context, c *soundbar.Client, v int) error {
		return c.SetRearLevel(ctx, v)
	}),
	"top-level": intSetting(func(ctx context.Context, c *soundbar.Client, v int) error {
		return c.SetTopLevel(ctx, v)
	}),
	"center-level": intSetting(func(ctx context.Context, c *soundbar.Client, v int) error {
		return c.SetCenterLevel(ctx, v)
	}),
	"tv-remote": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetTVRemote(ctx, v)
	}),
	"auto-power": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetAutoPower(ctx, v)
	}),
	"auto-display": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetAutoDisplay(ctx, v)
	}),
	"bt-standby": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetBluetoothStandby(ctx, v)
	}),
	"bt-restrict": boolSetting(func(ctx context.Context, c *soundbar.Client, v bool) error {
		return c.SetBluetoothRestriction(ctx, v)
	}),
	"sleep": intSetting(func(ctx context.Context, c *soundbar.Client, v int) error {
		return c.SetSleepTimer(ctx, v)
	}),
}

func settingNames() string {
	names := make([]string, 0, len(settingAppliers))
	for name := range settingAppliers {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// setCmd changes a device setting
var setCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Change a device setting",
	Long: `Change one of the soundbar's settings. Toggles take on/off; levels
take a number.

Settings: ` + settingNames() + `.`,
	Example: `  # Enable night mode
  lgbar set night-mode on

  # Raise the subwoofer level
  lgbar set woofer 3

  # Sleep in 30 minutes
  lgbar set sleep 30`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	apply, ok := settingAppliers[args[0]]
	if !ok {
		return fmt.Errorf("unknown setting %q (available: %s)", args[0], settingNames())
	}

	client, _, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	if err := apply(ctx, client, args[1]); err != nil {
		return err
	}
	fmt.Println(ui.RenderSuccess("%s set to %s", args[0], args[1]))
	return nil
}
