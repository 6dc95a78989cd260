package cmd

import (
	"context"
	"errors"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deskbox-sh/deskbox/pkg/desktop"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream the sandbox desktop over VNC",
}

var streamStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the VNC server and browser viewer proxy",
	RunE:  runStreamStart,
}

var streamStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the VNC server and viewer proxy",
	RunE:  runStreamStop,
}

var streamURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the browser viewer URL for a running stream",
	RunE:  runStreamURL,
}

var streamViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the viewer URL in the local browser",
	RunE:  runStreamView,
}

func init() {
	for _, c := range []*cobra.Command{streamStartCmd, streamStopCmd, streamURLCmd, streamViewCmd} {
		addTargetFlags(c)
		streamCmd.AddCommand(c)
	}

	streamStartCmd.Flags().Int("vnc-port", 0, "VNC server port (default 5900)")
	streamStartCmd.Flags().Int("web-port", 0, "Browser viewer port (default 6080)")
	streamStartCmd.Flags().Bool("auth", false, "Protect the stream with a generated password")
	streamStartCmd.Flags().String("window", "", "Stream a single window ID instead of the whole display")

	for _, c := range []*cobra.Command{streamURLCmd, streamViewCmd} {
		c.Flags().Bool("view-only", false, "Disable input forwarding in the viewer")
		c.Flags().String("resize", "", "Viewer scaling mode (off, scale, remote)")
		c.Flags().String("auth-key", "", "Embed this auth key as the viewer password")
		c.Flags().Bool("autoconnect", true, "Connect automatically on page load")
		c.Flags().Int("web-port", 0, "Browser viewer port the stream was started with (default 6080)")
	}

	rootCmd.AddCommand(streamCmd)
}

// StreamCmd drives the desktop's VNC stream controller.
type StreamCmd struct {
	d *desktop.Desktop
}

type StreamStartInput struct {
	VNCPort  int
	WebPort  int
	Auth     bool
	WindowID string
}

func (s StreamCmd) Start(ctx context.Context, in StreamStartInput) error {
	stream := s.d.Stream()
	err := stream.Start(ctx, desktop.StartOptions{
		VNCPort:     in.VNCPort,
		NoVNCPort:   in.WebPort,
		RequireAuth: in.Auth,
		WindowID:    in.WindowID,
	})
	if err != nil {
		pterm.Error.Printf("Failed to start stream: %v\n", err)
		return nil
	}

	url, err := stream.URL(desktop.URLOptions{})
	if err != nil {
		pterm.Error.Printf("Stream started but URL unavailable: %v\n", err)
		return nil
	}
	pterm.Success.Println("Stream started")
	pterm.Info.Printf("Viewer: %s\n", url)
	if in.Auth {
		if key, kerr := stream.AuthKey(); kerr == nil {
			pterm.Info.Printf("Auth key: %s\n", key)
		}
	}
	return nil
}

func (s StreamCmd) Stop(ctx context.Context) error {
	if err := s.d.Stream().Stop(ctx); err != nil {
		pterm.Error.Printf("Failed to stop stream: %v\n", err)
		return nil
	}
	pterm.Success.Println("Stream stopped")
	return nil
}

type StreamURLInput struct {
	ViewOnly    bool
	Resize      string
	AuthKey     string
	AutoConnect BoolFlag
	WebPort     int
}

func (s StreamCmd) URL(ctx context.Context, in StreamURLInput) (string, error) {
	opts := desktop.URLOptions{
		ViewOnly: in.ViewOnly,
		Resize:   in.Resize,
		AuthKey:  in.AuthKey,
	}
	if in.AutoConnect.Set {
		opts.AutoConnect = &in.AutoConnect.Value
	}
	stream := s.d.Stream()
	url, err := stream.URL(opts)
	if errors.Is(err, desktop.ErrStreamNotStarted) {
		// Each invocation runs in a fresh process, so a stream started
		// earlier leaves no in-memory state; recover it from the sandbox.
		if !stream.Running(ctx) {
			pterm.Error.Println("No stream is running; start one with 'deskbox stream start'")
			return "", nil
		}
		if aerr := stream.Attach(ctx, in.WebPort); aerr != nil {
			pterm.Error.Printf("Failed to resolve viewer URL: %v\n", aerr)
			return "", nil
		}
		url, err = stream.URL(opts)
	}
	if err != nil {
		pterm.Error.Printf("Failed to build viewer URL: %v\n", err)
		return "", nil
	}
	pterm.Info.Println(url)
	return url, nil
}

func streamURLInputFromFlags(cmd *cobra.Command) StreamURLInput {
	in := StreamURLInput{}
	in.ViewOnly, _ = cmd.Flags().GetBool("view-only")
	in.Resize, _ = cmd.Flags().GetString("resize")
	in.AuthKey, _ = cmd.Flags().GetString("auth-key")
	in.AutoConnect = getBoolFlag(cmd, "autoconnect")
	in.WebPort, _ = cmd.Flags().GetInt("web-port")
	return in
}

func runStreamStart(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	in := StreamStartInput{}
	in.VNCPort, _ = cmd.Flags().GetInt("vnc-port")
	in.WebPort, _ = cmd.Flags().GetInt("web-port")
	in.Auth, _ = cmd.Flags().GetBool("auth")
	in.WindowID, _ = cmd.Flags().GetString("window")
	return StreamCmd{d: d}.Start(cmd.Context(), in)
}

func runStreamStop(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	return StreamCmd{d: d}.Stop(cmd.Context())
}

func runStreamURL(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	_, err = StreamCmd{d: d}.URL(cmd.Context(), streamURLInputFromFlags(cmd))
	return err
}

func runStreamView(cmd *cobra.Command, args []string) error {
	d, err := attachDesktop(cmd)
	if err != nil {
		return err
	}
	url, err := StreamCmd{d: d}.URL(cmd.Context(), streamURLInputFromFlags(cmd))
	if err != nil || url == "" {
		return err
	}
	if err := browser.OpenURL(url); err != nil {
		pterm.Warning.Printf("Could not open browser: %v\n", err)
	}
	return nil
}
