package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/mattn/go-runewidth"
)

// spinnerFrames is the animation used for non-interactive progress lines.
var spinnerFrames = spinner.Dot

// spin runs fn while animating message on w, then clears the line. The
// animation stops early when ctx ends; fn is still waited for.
func spin[T any](ctx context.Context, w io.Writer, message string, fn func() (T, error)) (T, error) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		animate(ctx, done, w, message)
	}()

	res, err := fn()
	close(done)
	wg.Wait()

	width := runewidth.StringWidth(message) + runewidth.StringWidth(spinnerFrames.Frames[0]) + 1
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", width))
	return res, err
}

func animate(ctx context.Context, done <-chan struct{}, w io.Writer, message string) {
	fps := spinnerFrames.FPS
	if fps <= 0 {
		fps = 100 * time.Millisecond
	}
	ticker := time.NewTicker(fps)
	defer ticker.Stop()

	for i := 0; ; i++ {
		frame := spinnerFrames.Frames[i%len(spinnerFrames.Frames)]
		fmt.Fprintf(w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(message))
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
