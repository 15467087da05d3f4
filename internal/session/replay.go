package session

import (
	"context"
	"log"

	"github.com/junsooki/dvsview/internal/accumulator"
	"github.com/junsooki/dvsview/internal/config"
	"github.com/junsooki/dvsview/internal/control"
	"github.com/junsooki/dvsview/internal/input"
	"github.com/junsooki/dvsview/internal/source"
)

var replayKeys = map[input.Key]control.Kind{
	input.KeyQ:      control.Stop,
	input.KeyEscape: control.Stop,
	input.KeySpace:  control.Replay,
}

// Replay plays a recording back in a loop. Each frame shows Window
// microseconds of events and playback advances Step microseconds per frame.
type Replay struct {
	cfg    config.ReplayConfig
	reader source.Reader
	env    Env
	drops  dropLog

	frames int
	loops  int
}

func NewReplay(cfg config.ReplayConfig, r source.Reader, env Env) *Replay {
	return &Replay{cfg: cfg, reader: r, env: env}
}

func (p *Replay) Run(ctx context.Context) error {
	acc := accumulator.New()
	if err := acc.Setup(p.reader.Width(), p.reader.Height()); err != nil {
		return err
	}
	p.env.resize(p.reader.Width(), p.reader.Height())

	start, end := p.reader.StartTimestamp(), p.reader.EndTimestamp()
	log.Printf("replaying %d..%d us", start, end)
	if err := p.reader.Seek(start); err != nil {
		return err
	}

	interval := frameInterval(p.cfg.FPS)
	cur := start
	for {
		if ctx.Err() != nil {
			p.env.finish(control.Key)
			return nil
		}

		if cur > end {
			p.loops++
			log.Println("playback finished, replaying")
			if err := p.restart(start); err != nil {
				return err
			}
			cur = start
		}

		batch, err := p.reader.Events(cur, p.cfg.Window)
		if err != nil {
			return err
		}
		cur += p.cfg.Step
		if err := acc.ApplyEvents(batch); err != nil {
			p.drops.report(err)
		}

		frame, err := acc.TakeSnapshot()
		if err != nil {
			return err
		}
		p.frames++
		p.env.show(frame)

		for _, s := range p.env.poll(interval, replayKeys) {
			switch s.Kind {
			case control.Stop:
				log.Printf("replay stopped (%s)", s.Origin)
				p.env.finish(s.Origin)
				return nil
			case control.Replay:
				log.Println("replaying")
				if err := p.restart(start); err != nil {
					return err
				}
				cur = start
			default:
				log.Printf("ignoring %s during replay", s)
				p.env.consume(s)
			}
		}
	}
}

func (p *Replay) restart(start int64) error {
	return p.reader.Seek(start)
}
