package source

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"brane-view/internal/events"
	"brane-view/internal/invocation"
)

// maxLine bounds a single fragment line.
const maxLine = 4 << 20

// Stream reads newline-delimited fragments and publishes each as an update.
// Lines that do not parse are logged and skipped.
type Stream struct {
	Reader io.Reader
	Out    Publisher
	// Name labels the source in logs, e.g. "stdin" or a file path.
	Name string
	// Pace delays between published lines; zero publishes as fast as read.
	Pace time.Duration
}

type line struct {
	no   int
	text string
}

// Run publishes fragments until EOF or ctx is done. The reader is drained
// in its own goroutine so a blocking stdin never holds up cancellation.
func (s *Stream) Run(ctx context.Context) error {
	lines := make(chan line)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.Reader)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
		no := 0
		for scanner.Scan() {
			no++
			select {
			case lines <- line{no: no, text: scanner.Text()}:
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	entry := log.WithField("stream", s.name())
	published := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return err
					}
				default:
				}
				entry.Infof("stream ended after %d updates", published)
				return nil
			}
			text := strings.TrimSpace(l.text)
			if text == "" {
				continue
			}
			frag, err := invocation.ParseFragment([]byte(text))
			if err != nil {
				entry.Warnf("line %d skipped: %v", l.no, err)
				continue
			}
			if s.Pace > 0 && published > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(s.Pace):
				}
			}
			if err := s.Out.Deliver(ctx, events.FromFragment(frag, s.name())); err != nil {
				return err
			}
			published++
		}
	}
}

func (s *Stream) name() string {
	if s.Name == "" {
		return "stream"
	}
	return s.Name
}
