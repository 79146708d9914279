// Package monitor turns call monitor lines into call state, resolves the
// numbers involved against the phonebook and publishes every event.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"callmonitor-bridge/internal/brokers"
	"callmonitor-bridge/internal/common/errors"
	"callmonitor-bridge/internal/common/logging"
	"callmonitor-bridge/internal/common/utils"
	"callmonitor-bridge/internal/phonebook"
	"callmonitor-bridge/internal/triggers/callmonitor"
)

// Resolver looks up contact names. *phonebook.Directory implements it.
type Resolver interface {
	Lookup(number string) (*phonebook.Contact, bool)
}

// Config tunes the monitor.
type Config struct {
	// MaxPendingLookups bounds the number of in-flight resolve-and-publish tasks.
	MaxPendingLookups int64
	// PublishTimeout bounds a single publish to one broker.
	PublishTimeout time.Duration
	// Prefixes are reported in the snapshot.
	Prefixes []string
}

// Monitor is the line handler of the call monitor client.
//
// State updates happen synchronously in HandleLine. Name resolution and
// publishing run in background tasks, at most MaxPendingLookups at a time,
// so the stream is never held up by a broker.
type Monitor struct {
	config     Config
	resolver   Resolver
	publishers []brokers.Publisher
	logger     logging.Logger
	sem        *semaphore.Weighted
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup

	mu          sync.RWMutex
	state       CallState
	attrs       map[string]string
	generation  uint64
	pbStatus    string
	pbEntries   int
	pbRefreshed string
}

// New creates a monitor. resolver may be nil when no phonebook is configured.
func New(config Config, resolver Resolver, publishers []brokers.Publisher, logger logging.Logger) *Monitor {
	if config.MaxPendingLookups <= 0 {
		config.MaxPendingLookups = 16
	}
	if config.PublishTimeout <= 0 {
		config.PublishTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		config:     config,
		resolver:   resolver,
		publishers: publishers,
		logger:     logger,
		sem:        semaphore.NewWeighted(config.MaxPendingLookups),
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
		attrs:      map[string]string{},
		pbStatus:   PhonebookNotLoaded,
	}
}

// lookup is a number to resolve and the attribute receiving its name.
type lookup struct {
	number string
	attr   string
}

// HandleLine parses line and applies it. Lines that are not call events
// are ignored.
func (m *Monitor) HandleLine(line string) {
	ev, ok := callmonitor.ParseEvent(line)
	if !ok {
		m.logger.Debug("Ignoring call monitor line", logging.String("line", line))
		return
	}

	iso := utils.GatewayTimeToISO(ev.Timestamp)
	attrs := map[string]string{AttrRaw: line}
	var state CallState
	var lookups []lookup

	switch ev.Kind {
	case callmonitor.KindRing:
		state = StateRinging
		attrs[AttrType] = "incoming"
		attrs[AttrFrom] = ev.From
		attrs[AttrTo] = ev.To
		attrs[AttrDevice] = ev.Device
		attrs[AttrInitiated] = iso
		lookups = []lookup{{ev.From, AttrFromName}}
	case callmonitor.KindCall:
		state = StateDialing
		attrs[AttrType] = "outgoing"
		attrs[AttrFrom] = ev.From
		attrs[AttrTo] = ev.To
		attrs[AttrDevice] = ev.Device
		attrs[AttrInitiated] = iso
		lookups = []lookup{{ev.To, AttrToName}}
	case callmonitor.KindConnect:
		state = StateTalking
		attrs[AttrDevice] = ev.Device
		attrs[AttrWith] = ev.Peer
		attrs[AttrAccepted] = iso
		lookups = []lookup{{ev.Peer, AttrWithName}}
	case callmonitor.KindDisconnect:
		state = StateIdle
		attrs[AttrDuration] = ev.Duration
		attrs[AttrClosed] = iso
	}

	m.mu.Lock()
	m.state = state
	m.attrs = attrs
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	ctx := logging.ContextWithCallID(m.ctx, ev.ConnectionID)
	m.logger.WithContext(ctx).Info("Call event",
		logging.String("kind", string(ev.Kind)),
		logging.String("state", string(state)),
	)

	if m.ctx.Err() != nil {
		return
	}
	if err := m.sem.Acquire(m.ctx, 1); err != nil {
		return
	}
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		defer m.sem.Release(1)
		m.resolveAndPublish(ctx, gen, ev, state, lookups)
	}()
}

func (m *Monitor) resolveAndPublish(ctx context.Context, gen uint64, ev *callmonitor.Event, state CallState, lookups []lookup) {
	names := map[string]string{}
	if m.resolver != nil {
		for _, l := range lookups {
			if l.number == "" {
				continue
			}
			if c, ok := m.resolver.Lookup(l.number); ok {
				names[l.attr] = c.Name
			}
		}
	}

	if len(names) > 0 {
		m.mu.Lock()
		// A newer event has replaced the attributes; its own task fills in its names.
		if m.generation == gen {
			for k, v := range names {
				m.attrs[k] = v
			}
		}
		m.mu.Unlock()
	}

	m.publish(ctx, ev, state, names)
}

// envelope is the JSON body of a published event.
type envelope struct {
	ID    string             `json:"id"`
	State CallState          `json:"state"`
	Event *callmonitor.Event `json:"event"`
	Names map[string]string  `json:"names,omitempty"`
}

func (m *Monitor) publish(ctx context.Context, ev *callmonitor.Event, state CallState, names map[string]string) {
	if len(m.publishers) == 0 {
		return
	}

	env := envelope{ID: uuid.NewString(), State: state, Event: ev, Names: names}
	body, err := json.Marshal(env)
	if err != nil {
		m.logger.Error("Failed to encode call event", err)
		return
	}

	msg := &brokers.Message{
		MessageID:  env.ID,
		RoutingKey: string(ev.Kind),
		Headers: map[string]string{
			"state":         string(state),
			"connection_id": ev.ConnectionID,
		},
		Body:      body,
		Timestamp: m.now(),
	}

	for _, p := range m.publishers {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.PublishTimeout)
		if err := p.Publish(pctx, msg); err != nil {
			m.logger.WithContext(ctx).Warn("Failed to publish call event",
				logging.String("broker", p.Name()),
				logging.Err(err),
			)
		}
		cancel()
	}
}

// RecordRefresh updates the phonebook diagnostics after a refresh attempt.
func (m *Monitor) RecordRefresh(err error, entries int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pbRefreshed = m.now().Format(utils.ISOLayout)
	if err != nil {
		m.pbStatus = fmt.Sprintf("error:%s", errors.GetType(err))
		m.pbEntries = 0
		return
	}
	m.pbStatus = PhonebookOK
	m.pbEntries = entries
}

// Snapshot returns a copy of the current state.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	attrs := make(map[string]string, len(m.attrs))
	for k, v := range m.attrs {
		attrs[k] = v
	}

	var prefixes []string
	if len(m.config.Prefixes) > 0 {
		prefixes = append(prefixes, m.config.Prefixes...)
	}

	return Snapshot{
		State:                m.state,
		Attributes:           attrs,
		PhonebookStatus:      m.pbStatus,
		PhonebookEntries:     m.pbEntries,
		PhonebookLastRefresh: m.pbRefreshed,
		Prefixes:             prefixes,
		EventsHandled:        m.generation,
	}
}

// Wait blocks until all pending resolve-and-publish tasks are done.
func (m *Monitor) Wait() {
	m.tasks.Wait()
}

// Close stops accepting new events and waits for pending tasks, each
// publish still bounded by PublishTimeout.
func (m *Monitor) Close() {
	m.cancel()
	m.tasks.Wait()
}
