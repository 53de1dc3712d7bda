package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmholter/lgbar/internal/bridge"
	"github.com/tmholter/lgbar/internal/config"
	"github.com/tmholter/lgbar/internal/discovery"
	"github.com/tmholter/lgbar/internal/logging"
	"github.com/tmholter/lgbar/internal/protocol"
	"github.com/tmholter/lgbar/internal/soundbar"
	"github.com/tmholter/lgbar/internal/tui"
	"github.com/tmholter/lgbar/internal/ui"
)

// Device resolution flags (persistent on root)
var (
	flagHost    string
	flagPort    int
	flagDevice  string
	flagTimeout int
)

// Command-specific flags
var (
	scanTimeout  int
	bridgeListen string
	resetConfirm bool
	infoAsJSON   bool
)

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(volumeCmd)
	rootCmd.AddCommand(muteCmd)
	rootCmd.AddCommand(inputCmd)
	rootCmd.AddCommand(eqCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(bridgeCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(testToneCmd)
	rootCmd.AddCommand(factoryResetCmd)
}

// discoverCmd scans for soundbars on the network
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover LG soundbars on the network",
	Long: `Scan for LG soundbars using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts from soundbars and displays all
discovered devices with their IP addresses and metadata. Discovered
devices are remembered in the registry so later commands can reach them
by name.`,
	Example: `  # Scan for 10 seconds (default)
  lgbar discover

  # Quick 3-second scan
  lgbar discover --scan-timeout 3`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 10, "Scan timeout in seconds")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for LG soundbars (timeout: %ds)...\n\n", scanTimeout)

	devices, err := discovery.ScanForDevices(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(devices) == 0 {
		fmt.Println("No soundbars found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the soundbar is powered on and connected to WiFi")
		fmt.Println("  - Verify your computer is on the same network segment")
		fmt.Println("  - Try increasing --scan-timeout for slower networks")
		fmt.Println("  - Use --host to specify the IP manually if discovery fails")
		return nil
	}

	fmt.Printf("Found %d device(s):\n\n", len(devices))

	registry, regErr := config.LoadRegistry()
	for i, device := range devices {
		fmt.Printf("%d. %s\n", i+1, device.Name)
		fmt.Printf("   IP:   %s:%d\n", device.IP, device.Port)
		if len(device.Metadata) > 0 {
			fmt.Printf("   Metadata: %v\n", device.Metadata)
		}
		fmt.Println()

		if regErr == nil {
			registry.RememberDevice(device.Name, device.IP, device.Port)
		}
	}
	if regErr == nil {
		if err := registry.Save(); err != nil {
			logging.Warn("failed to save device registry")
		}
	}

	fmt.Println("Use 'lgbar status --host <ip>' to check a device")
	fmt.Println("Use 'lgbar' for the interactive dashboard")

	return nil
}

// statusCmd shows the current device state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show soundbar status",
	Long: `Display the current state of a soundbar: volume, mute, active input,
sound mode, and the user-visible settings panel.`,
	Example: `  # Status with auto-discovery
  lgbar status

  # Status for a specific device
  lgbar status --host 192.168.1.48`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, host, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	spk, err := client.SpeakerInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to read speaker info: %w", err)
	}
	eq, err := client.EqualizerInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sound mode: %w", err)
	}
	fn, err := client.FunctionInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	settings, err := client.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	name := settings.Name
	if name == "" {
		name = host
	}

	fmt.Println(ui.RenderPanel(name, []ui.Detail{
		{Key: "Volume", Value: fmt.Sprintf("%d/%d", spk.Volume, spk.MaxVolume)},
		{Key: "Mute", Value: ui.FormatMuted(spk.Muted)},
		{Key: "Input", Value: fn.Current.String()},
		{Key: "Sound mode", Value: eq.Current.String()},
		{Key: "Night mode", Value: ui.FormatBool(settings.NightMode)},
		{Key: "Auto volume", Value: ui.FormatBool(settings.AutoVolume)},
		{Key: "Woofer", Value: strconv.Itoa(settings.WooferLevel)},
		{Key: "AV sync", Value: fmt.Sprintf("%d ms", settings.AVSync)},
	}))

	return nil
}

// volumeCmd gets or sets the master volume
var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Get or set the master volume",
	Long: `Without an argument, prints the current volume. With a level argument,
sets the volume (0-40).`,
	Example: `  # Print current volume
  lgbar volume

  # Set volume to 15
  lgbar volume 15`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

func runVolume(cmd *cobra.Command, args []string) error {
	client, _, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	if len(args) == 0 {
		spk, err := client.SpeakerInfo(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d\n", spk.Volume)
		return nil
	}

	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid volume level %q", args[0])
	}
	if err := client.SetVolume(ctx, level); err != nil {
		return err
	}
	fmt.Println(ui.RenderSuccess("volume set to %d", level))
	return nil
}

// muteCmd sets or toggles mute
var muteCmd = &cobra.Command{
	Use:   "mute [on|off]",
	Short: "Mute or unmute the soundbar",
	Long:  `Without an argument, toggles mute. With on/off, sets it explicitly.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMute,
}

func runMute(cmd *cobra.Command, args []string) error {
	client, _, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	var muted bool
	if len(args) == 0 {
		spk, err := client.SpeakerInfo(ctx)
		if err != nil {
			return err
		}
		muted = !spk.Muted
	} else {
		muted, err = parseOnOff(args[0])
		if err != nil {
			return err
		}
	}

	if err := client.SetMute(ctx, muted); err != nil {
		return err
	}
	fmt.Println(ui.RenderSuccess("%s", ui.FormatMuted(muted)))
	return nil
}

// inputCmd switches the active input source
var inputCmd = &cobra.Command{
	Use:   "input <source>",
	Short: "Switch the active input source",
	Long: `Switch the soundbar to a different input source. Source names are
matched case-insensitively (e.g. "optical", "hdmi", "bluetooth",
"wifi", "arc", "usb").`,
	Example: `  lgbar input optical
  lgbar input bluetooth --host 192.168.1.48`,
	Args: cobra.ExactArgs(1),
	RunE: runInput,
}

func runInput(cmd *cobra.Command, args []string) error {
	fn, ok := soundbar.ParseFunction(args[0])
	if !ok {
		return fmt.Errorf("unknown input source %q", args[0])
	}

	client, _, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	if err := client.SetFunction(ctx, fn); err != nil {
		return err
	}
	fmt.Println(ui.RenderSuccess("input switched to %s", fn))
	return nil
}

// eqCmd switches the sound mode
var eqCmd = &cobra.Command{
	Use:   "eq <mode>",
	Short: "Switch the sound mode",
	Long: `Switch the soundbar's equalizer preset. Mode names are matched
case-insensitively (e.g. "standard", "cinema", "music", "bass").`,
	Example: `  lgbar eq cinema
  lgbar eq standard --host 192.168.1.48`,
	Args: cobra.ExactArgs(1),
	RunE: runEq,
}

func runEq(cmd *cobra.Command, args []string) error {
	eq, ok := soundbar.ParseEqualizer(args[0])
	if !ok {
		return fmt.Errorf("unknown sound mode %q", args[0])
	}

	client, _, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	if err := client.SetEqualizer(ctx, eq); err != nil {
		return err
	}
	fmt.Println(ui.RenderSuccess("sound mode set to %s", eq))
	return nil
}

// renameCmd sets the user-visible device name
var renameCmd = &cobra.Command{
	Use:   "rename <name>",
	Short: "Set the soundbar's display name",
	Args:  cobra.ExactArgs(1),
	RunE:  runRename,
}

func runRename(cmd *cobra.Command, args []string) error {
	client, _, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	if err := client.SetName(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println(ui.RenderSuccess("renamed to %q", args[0]))
	return nil
}

// infoCmd dumps a raw device info panel as JSON
var infoCmd = &cobra.Command{
	Use:   "info <panel>",
	Short: "Dump a raw device info panel",
	Long: `Fetch one of the device's raw info panels and print it.

Panels: product, play, radio, ap, update, chromecast, build, option,
mac, mem, test.`,
	Example: `  lgbar info product
  lgbar info play --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoAsJSON, "json", false, "Print compact JSON for scripting")
}

func runInfo(cmd *cobra.Command, args []string) error {
	client, _, err := connectClient()
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := callContext()
	defer cancel()

	var data map[string]any
	switch args[0] {
	case "product":
		data, err = client.ProductInfo(ctx)
	case "play":
		data, err = client.PlayInfo(ctx)
	case "radio":
		data, err = client.RadioInfo(ctx)
	case "ap":
		data, err = client.AccessPointInfo(ctx)
	case "update":
		data, err = client.UpdateInfo(ctx)
	case "chromecast":
		data, err = client.ChromecastInfo(ctx)
	case "build":
		data, err = client.BuildInfo(ctx)
	case "option":
		data, err = client.OptionInfo(ctx)
	case "mac":
		data, err = client.MACInfo(ctx)
	case "mem":
		data, err = client.MemoryMonitorInfo(ctx)
	case "test":
		data, err = client.TestInfo(ctx)
	default:
		return fmt.Errorf("unknown panel %q", args[0])
	}
	if err != nil {
		return err
	}

	if infoAsJSON {
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

// watchCmd streams device pushes to stdout
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream device events to stdout",
	Long: `Stay connected and print every unsolicited device push as a JSON line.
Useful for scripting and for seeing what the physical remote does on
the wire. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	enc := json.NewEncoder(os.Stdout)
	client, host, err := connectClient(soundbar.WithEventHandler(func(msg protocol.Message) {
		_ = enc.Encode(msg)
	}))
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintf(os.Stderr, "Watching %s, Ctrl-C to stop...\n", host)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		return nil
	case <-client.Done():
		return client.Err()
	}
}

// bridgeCmd re-publishes device events over WebSocket
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve device events over WebSocket",
	Long: `Stay connected to the soundbar and re-publish every device push to
WebSocket subscribers at /events. Lets home-automation hubs react to
volume and input changes without speaking the encrypted protocol.`,
	Example: `  # Serve events on the default port
  lgbar bridge

  # Custom listen address
  lgbar bridge --listen 0.0.0.0:9842`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVar(&bridgeListen, "listen", "127.0.0.1:9842", "WebSocket listen address")
}

func runBridge(cmd *cobra.Command, args []string) error {
	b := bridge.New(logging.GetLogger())

	client, host, err := connectClient(soundbar.WithEventHandler(b.Publish))
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Fprintf(os.Stderr, "Bridging %s -> ws://%s/events, Ctrl-C to stop...\n", host, bridgeListen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.ListenAndServe(bridgeListen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-client.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = b.Shutdown(shutdownCtx)
		return client.Err()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return b.Shutdown(shutdownCtx)
	}
}

// dashboardCmd launches the interactive dashboard
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"tui"},
	Short:   "Launch the interactive dashboard",
	Long: `Launch a full-screen dashboard showing live device state with direct
control keys (volume, mute, input, sound mode).

This is the default when lgbar runs without a subcommand.`,
	Example: `  # Launch with auto-discovery
  lgbar dashboard
  # Or simply:
  lgbar

  # Launch for a specific device
  lgbar dashboard --host 192.168.1.48`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	host, port, err := resolveDevice()
	if err != nil {
		return err
	}
	return tui.Run(host,
		soundbar.WithPort(port),
		soundbar.WithLogger(logging.GetLogger()),
	)
}

// testToneCmd plays the built-in speaker test tone
var testToneCmd = &cobra.Command{
	Use:   "test-tone",
	Short: "Play the built-in speaker test tone",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := connectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.RunTestTone(); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("test tone triggered"))
		return nil
	},
}

// factoryResetCmd resets the device to factory defaults
var factoryResetCmd = &cobra.Command{
	Use:   "factory-reset",
	Short: "Reset the soundbar to factory defaults",
	Long: `Reset the soundbar to factory defaults. The device reboots and drops
off the network until it is set up again. Requires --yes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirm {
			return fmt.Errorf("refusing to reset without --yes")
		}

		client, _, err := connectClient()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.FactoryReset(); err != nil {
			return err
		}
		fmt.Println(ui.RenderSuccess("factory reset triggered"))
		return nil
	},
}

func init() {
	factoryResetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "Confirm the reset")
}

// parseOnOff accepts the toggle spellings used across commands.
func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q (use on/off)", s)
}

// callContext returns the per-command timeout context.
func callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(flagTimeout)*time.Second)
}

// connectClient resolves the target device and opens a control connection.
func connectClient(extra ...soundbar.Option) (*soundbar.Client, string, error) {
	host, port, err := resolveDevice()
	if err != nil {
		return nil, "", err
	}

	opts := append([]soundbar.Option{
		soundbar.WithPort(port),
		soundbar.WithLogger(logging.GetLogger()),
	}, extra...)

	client, err := soundbar.Connect(host, opts...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to %s:%d: %w", host, port, err)
	}
	return client, host, nil
}

// resolveDevice picks the target device: the --host flag wins, then the
// registry (--name or the configured default), then single-device
// discovery.
func resolveDevice() (string, int, error) {
	if flagHost != "" {
		return flagHost, flagPort, nil
	}

	registry, err := config.LoadRegistry()
	if err == nil {
		name := flagDevice
		if name == "" && registry.Preferences != nil {
			name = registry.Preferences.DefaultDevice
		}
		if name != "" {
			if dev := registry.GetDevice(name); dev != nil {
				port := dev.Port
				if port == 0 {
					port = soundbar.DefaultPort
				}
				return dev.Host, port, nil
			}
			if flagDevice != "" {
				return "", 0, fmt.Errorf("no saved device named %q; run 'lgbar discover' first", flagDevice)
			}
		}
	}

	// Fall back to discovery
	fmt.Fprintln(os.Stderr, "No device specified, attempting auto-discovery...")
	devices, err := discovery.ScanForDevices(5 * time.Second)
	if err != nil {
		return "", 0, fmt.Errorf("discovery failed: %w", err)
	}

	if len(devices) == 0 {
		return "", 0, fmt.Errorf("no soundbars found. Use --host to specify the IP manually")
	}

	if len(devices) > 1 {
		fmt.Fprintf(os.Stderr, "Found %d devices:\n", len(devices))
		for i, device := range devices {
			fmt.Fprintf(os.Stderr, "%d. %s (%s)\n", i+1, device.Name, device.IP)
		}
		return "", 0, fmt.Errorf("multiple soundbars found. Use --host or --name to pick one")
	}

	device := devices[0]
	fmt.Fprintf(os.Stderr, "Found device: %s (%s)\n\n", device.Name, device.IP)

	if registry, err := config.LoadRegistry(); err == nil {
		registry.RememberDevice(device.Name, device.IP, device.Port)
		if err := registry.Save(); err != nil {
			logging.Warn("failed to save device registry")
		}
	}

	return device.IP, device.Port, nil
}
