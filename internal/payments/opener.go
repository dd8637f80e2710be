package payments

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// PrintOpener writes the payment URL for the rider to open.
type PrintOpener struct {
	W io.Writer
}

func (o PrintOpener) Open(_ context.Context, url string) error {
	_, err := fmt.Fprintf(o.W, "Complete your payment at: %s\n", url)
	return err
}

// BrowserOpener launches the system browser and falls back to Fallback.
type BrowserOpener struct {
	Fallback Opener
}

func (o BrowserOpener) Open(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		if o.Fallback != nil {
			return o.Fallback.Open(ctx, url)
		}
		return fmt.Errorf("launch browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
