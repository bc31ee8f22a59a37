package source

import (
	"context"
	"errors"
	"time"

	"brane-view/internal/events"
	"brane-view/internal/invocation"
)

// Publisher receives snapshots. *events.UpdateQueue satisfies it.
type Publisher interface {
	Deliver(ctx context.Context, u events.Update) error
}

// Poller fetches one invocation at a fixed interval and publishes every
// snapshot under the invocation id as display id. It stops after a
// terminal status or when the API reports the invocation as missing.
type Poller struct {
	Client   *Client
	ID       string
	Interval time.Duration
	Out      Publisher
}

// Run polls until the invocation ends, the API answers 404, or ctx is done.
// A 404 before any snapshot was seen is returned as ErrNotFound.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	entry := log.WithField("display", p.ID)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	seen := false
	for {
		rec, err := p.Client.Invocation(ctx, p.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			if !seen {
				return ErrNotFound
			}
			entry.Warn("invocation disappeared, stop polling")
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			entry.Warnf("poll failed, retry in %s: %v", interval, err)
		default:
			kind := events.KindUpdate
			if !seen {
				kind = events.KindDisplay
			}
			u := events.Update{DisplayID: p.ID, Kind: kind, Record: rec, Timestamp: time.Now(), Source: "poll"}
			if err := p.Out.Deliver(ctx, u); err != nil {
				return err
			}
			seen = true
			if rec.Status.Terminal() {
				entry.Infof("invocation reached %s, stop polling", rec.Status)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ Publisher = (*events.UpdateQueue)(nil)

// Snapshot fetches a single record and wraps it as a display fragment.
func Snapshot(ctx context.Context, c *Client, id string) (invocation.Fragment, error) {
	rec, err := c.Invocation(ctx, id)
	if err != nil {
		return invocation.Fragment{}, err
	}
	return invocation.Fragment{DisplayID: id, Record: rec}, nil
}
