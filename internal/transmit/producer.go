package transmit

import (
	"time"

	"github.com/danmuck/pulsectl/internal/relay"
	"github.com/rs/zerolog"
)

// Clock is the monotonic microsecond source feeding the relay. daq.Device
// satisfies it.
type Clock interface {
	NowMicros() uint64
}

// Producer publishes clock readings into the relay at a fixed interval. It
// owns the shutdown request: after its final publish it flips the relay flag
// so the transmitter drains and exits. Joining the transmitter thread stays
// the caller's job.
type Producer struct {
	clock    Clock
	cell     *relay.Relay
	interval time.Duration
	count    int
	log      zerolog.Logger
}

// NewProducer runs for count publishes; count of 0 or less means run until
// something else requests shutdown.
func NewProducer(clock Clock, cell *relay.Relay, interval time.Duration, count int, logger zerolog.Logger) *Producer {
	return &Producer{clock: clock, cell: cell, interval: interval, count: count, log: logger}
}

func (p *Producer) Run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for i := 0; p.count <= 0 || i < p.count; i++ {
		if !p.cell.Running() {
			break
		}
		ts := p.clock.NowMicros()
		p.cell.SetTimestamp(ts)
		p.log.Debug().Uint64("timestamp", ts).Msg("timestamp published")
		<-ticker.C
	}
	p.cell.RequestShutdown()
}
