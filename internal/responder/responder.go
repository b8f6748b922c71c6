// Package responder drives the simulated reply of an assistant pane.
//
// A reply runs as a chain of scheduled callbacks: a status line whose dots
// cycle once per tick, then the canned reply body. Every callback runs on the
// caller's loop through a Scheduler, so the responder itself needs no locking.
package responder

import (
	"context"
	"strings"
	"time"

	"panemux/internal/pane"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"pkt.systems/pslog"
)

// Scheduler runs fn once after d on the caller's loop.
// The returned cancel func prevents fn from running if it has not run yet.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

// DefaultReply is the canned body written when a reply finishes.
const DefaultReply = `Lorem ipsum odor amet, consectetuer adipiscing elit. Lobortis parturient auctor ac urna sollicitudin consectetur. Nam nulla tempor habitant penatibus potenti mollis facilisis. Elit turpis vestibulum neque, efficitur aptent porttitor. Maecenas tempor volutpat purus maximus magna nisl volutpat aliquet erat. Nibh cubilia quisque non; torquent imperdiet magna aenean. Nisl proin a sit; sem ornare nascetur at dictum. Pellentesque lobortis ante sit viverra praesent eget scelerisque pellentesque tempor.

Molestie senectus ullamcorper felis proin integer. Finibus dictumst sem viverra diam vel mollis. Eget phasellus suscipit magnis amet eu lectus phasellus venenatis. Sem ipsum mattis condimentum fusce lacus accumsan. Praesent ultrices iaculis ut porttitor aenean. Condimentum sem rutrum felis proin tempus inceptos penatibus aliquet. Platea fames mus primis interdum scelerisque luctus laoreet placerat torquent?

Viverra volutpat arcu adipiscing malesuada rhoncus faucibus. Libero nunc orci metus id quis vel. Conubia finibus consequat netus netus primis, feugiat vehicula potenti. Mi pulvinar interdum convallis ad id mauris. Feugiat risus tortor auctor felis interdum eget id fringilla mattis. Morbi aenean lectus integer dolor a diam magnis. Cubilia id ultrices augue vestibulum; facilisis convallis.`

// Config controls reply pacing and text.
type Config struct {
	Interval time.Duration
	Ticks    int
	Status   string
	Reply    string
}

// DefaultConfig returns the stock pacing: 24 ticks of 500ms.
func DefaultConfig() Config {
	return Config{
		Interval: 500 * time.Millisecond,
		Ticks:    24,
		Status:   "Generating answer ",
		Reply:    DefaultReply,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.Ticks <= 0 {
		c.Ticks = d.Ticks
	}
	if c.Status == "" {
		c.Status = d.Status
	}
	if c.Reply == "" {
		c.Reply = d.Reply
	}
	return c
}

// Options configures a Responder.
type Options struct {
	Config Config
	Logger pslog.Logger
	Tracer trace.Tracer
}

// Responder is bound to one assistant pane.
type Responder struct {
	pane   *pane.Pane
	sched  Scheduler
	cfg    Config
	logger pslog.Logger
	tracer trace.Tracer

	// active reply, zero when idle
	tick   int
	cancel func()
	span   trace.Span
}

// New creates a responder for p. Zero Config fields take their defaults.
func New(p *pane.Pane, sched Scheduler, opts Options) *Responder {
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("panemux/responder")
	}
	r := &Responder{
		pane:   p,
		sched:  sched,
		cfg:    opts.Config.withDefaults(),
		tracer: opts.Tracer,
	}
	if opts.Logger != nil {
		r.logger = opts.Logger.With("pane", p.ID().String(), "kind", p.Kind().String())
	}
	return r
}

// Config returns the active configuration.
func (r *Responder) Config() Config { return r.cfg }

// SetConfig replaces the configuration. A reply in flight keeps its timer but
// picks up the new values from its next tick.
func (r *Responder) SetConfig(cfg Config) { r.cfg = cfg.withDefaults() }

// Active reports whether a reply is in flight.
func (r *Responder) Active() bool { return r.cancel != nil }

// Dispatch starts a reply to command. It returns false, and changes nothing,
// while a previous reply is still loading.
func (r *Responder) Dispatch(ctx context.Context, command string) bool {
	if r.pane.Loading() {
		return false
	}
	_, r.span = r.tracer.Start(ctx, "responder.reply",
		trace.WithAttributes(
			attribute.String("panemux.pane", r.pane.ID().String()),
			attribute.Int("panemux.ticks", r.cfg.Ticks),
		))

	r.pane.AppendLine(r.pane.Prompt() + command)
	r.pane.AppendLine(r.cfg.Status)
	r.pane.SetLoading(true)
	r.tick = 0
	r.cancel = r.sched.After(r.cfg.Interval, r.step)
	if r.logger != nil {
		r.logger.Debug("reply started", "command", command)
	}
	return true
}

// step advances the status line by one tick.
func (r *Responder) step() {
	if r.tick >= r.cfg.Ticks {
		r.cancel = r.sched.After(0, r.finish)
		return
	}
	r.pane.ReplaceLast(r.cfg.Status + strings.Repeat(".", r.tick%3+1))
	r.tick++
	r.cancel = r.sched.After(r.cfg.Interval, r.step)
}

// finish writes the reply body and restores the prompt.
func (r *Responder) finish() {
	r.pane.AppendLine("")
	r.pane.AppendLine(r.cfg.Reply)
	r.pane.SetLoading(false)
	r.cancel = nil
	r.tick = 0
	r.endSpan(false)
	if r.logger != nil {
		r.logger.Debug("reply finished")
	}
}

// Cancel stops a reply in flight. Nothing is written to the pane afterwards.
func (r *Responder) Cancel() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	r.tick = 0
	r.endSpan(true)
}

func (r *Responder) endSpan(cancelled bool) {
	if r.span == nil {
		return
	}
	r.span.SetAttributes(attribute.Bool("panemux.cancelled", cancelled))
	r.span.End()
	r.span = nil
}
