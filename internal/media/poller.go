package media

import (
	"context"
	"sync"
	"time"

	"github.com/maheshrc27/fediplan/internal/fediverse"
)

// DefaultPollInterval is how often an attachment in processing is queried.
const DefaultPollInterval = 5 * time.Second

type mediaFetcher interface {
	GetMedia(ctx context.Context, id string) (*fediverse.Attachment, error)
}

// Poller watches one remote attachment that the instance is still
// transcoding. It queries the status once per tick and reports exactly once:
// success when a ready URL appears, failure on the first query error.
type Poller struct {
	client   mediaFetcher
	id       string
	interval time.Duration
	onDone   func(*fediverse.Attachment, error)

	done       chan struct{}
	cancelOnce sync.Once
	emitOnce   sync.Once
}

func NewPoller(client mediaFetcher, id string, interval time.Duration, onDone func(*fediverse.Attachment, error)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		client:   client,
		id:       id,
		interval: interval,
		onDone:   onDone,
		done:     make(chan struct{}),
	}
}

func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			attachment, err := p.client.GetMedia(ctx, p.id)

			// A cancel that arrived while the query was in flight wins:
			// the tick completes but its result is discarded.
			select {
			case <-p.done:
				return
			default:
			}

			if err != nil {
				p.finish(nil, err)
				return
			}
			if attachment.URL != "" {
				p.finish(attachment, nil)
				return
			}
		}
	}
}

// Cancel stops the poller. Safe to call more than once and after the result
// has already been reported.
func (p *Poller) Cancel() {
	p.cancelOnce.Do(func() {
		close(p.done)
	})
}

func (p *Poller) finish(attachment *fediverse.Attachment, err error) {
	p.emitOnce.Do(func() {
		p.onDone(attachment, err)
	})
}
