package tracking

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/PizzaTrack/internal/display"
	"github.com/BearBump/PizzaTrack/internal/integrations/cloud"
	"github.com/BearBump/PizzaTrack/internal/metrics"
	"github.com/BearBump/PizzaTrack/internal/models"
	"github.com/BearBump/PizzaTrack/internal/notify"
	"github.com/BearBump/PizzaTrack/internal/services/countdown"
	"github.com/BearBump/PizzaTrack/internal/services/poller"
	"github.com/BearBump/PizzaTrack/internal/telemetry"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

var (
	ErrNoPizza   = errors.New("unknown pizza")
	ErrNoSession = errors.New("no order in progress")
)

// Settings is the part of the settings service the manager reads on every order.
type Settings interface {
	DeviceID(ctx context.Context) (string, error)
	Landmarks(ctx context.Context) (dest, partner models.Position, err error)
}

type Options struct {
	DeliveryDuration   time.Duration
	CountdownTick      time.Duration
	PollInterval       time.Duration
	PollLookback       time.Duration
	RateLimitPerMinute int64
}

func (o Options) withDefaults() Options {
	if o.DeliveryDuration <= 0 {
		o.DeliveryDuration = 30 * time.Minute
	}
	if o.CountdownTick <= 0 {
		o.CountdownTick = 250 * time.Millisecond
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.PollLookback <= 0 {
		o.PollLookback = 10 * time.Second
	}
	return o
}

type OrderRequest struct {
	Pizza string `json:"pizza"`
}

// Manager owns the single live order. Placing an order supersedes the previous one.
type Manager struct {
	board      *display.Board
	client     cloud.Client
	settings   Settings
	notifier   notify.Notifier
	rl         poller.RateLimiter
	dispatcher *telemetry.Dispatcher
	clock      clockwork.Clock
	menu       []models.Pizza
	opts       Options

	mu           sync.Mutex
	current      *Session
	window       *poller.Window
	windowDevice string
}

func NewManager(
	board *display.Board,
	client cloud.Client,
	settings Settings,
	notifier notify.Notifier,
	rl poller.RateLimiter,
	clock clockwork.Clock,
	menu []models.Pizza,
	opts Options,
) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Manager{
		board:      board,
		client:     client,
		settings:   settings,
		notifier:   notifier,
		rl:         rl,
		dispatcher: telemetry.NewDispatcher(slog.Default()),
		clock:      clock,
		menu:       menu,
		opts:       opts.withDefaults(),
	}
}

func (m *Manager) Menu() []models.Pizza {
	return append([]models.Pizza(nil), m.menu...)
}

func (m *Manager) lookup(name string) (models.Pizza, bool) {
	name = strings.TrimSpace(name)
	for _, p := range m.menu {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return models.Pizza{}, false
}

// resolveDevice returns the selected device, falling back to the first device
// of the account when none was chosen yet.
func (m *Manager) resolveDevice(ctx context.Context) (string, error) {
	id, err := m.settings.DeviceID(ctx)
	if err != nil {
		return "", errors.Wrap(err, "read device id")
	}
	if id != "" {
		return id, nil
	}
	devices, err := m.client.ListDevices(ctx)
	if err != nil {
		return "", errors.Wrap(err, "list devices")
	}
	if len(devices) == 0 {
		return "", cloud.ErrNoDevices
	}
	return devices[0].ID, nil
}

// PlaceOrder stops the previous order, resets the per-order display and starts
// the countdown and telemetry polling for the new one.
func (m *Manager) PlaceOrder(ctx context.Context, req OrderRequest) (*Session, error) {
	pizza, ok := m.lookup(req.Pizza)
	if !ok {
		return nil, ErrNoPizza
	}
	deviceID, err := m.resolveDevice(ctx)
	if err != nil {
		return nil, err
	}
	dest, partner, err := m.settings.Landmarks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read landmarks")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.close()
		slog.Info("order superseded", "session_id", m.current.ID())
	}
	if m.window == nil || m.windowDevice != deviceID {
		m.window = poller.NewWindow(m.opts.PollLookback)
		m.windowDevice = deviceID
	}

	now := m.clock.Now().UTC()
	order := models.Order{
		SessionID: uuid.NewString(),
		Pizza:     pizza,
		PlacedAt:  now,
		Deadline:  now.Add(m.opts.DeliveryDuration),
	}
	s := &Session{
		Order:      order,
		board:      m.board,
		notifier:   m.notifier,
		dispatcher: m.dispatcher,
		clock:      m.clock,
		granted:    make(map[models.PromotionReason]bool, 3),
	}
	s.poller = poller.New(m.client, deviceID, s.handle, m.rl, m.clock).
		WithSettings(m.opts.PollInterval, m.opts.RateLimitPerMinute).
		WithWindow(m.window)

	m.board.SetLandmarks(dest, partner)
	m.board.StartOrder(order)
	m.board.SetDeliveryTime(countdown.Format(m.opts.DeliveryDuration))

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	cd := countdown.New(m.clock, order.Deadline, m.opts.CountdownTick, s)
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		_ = cd.Run(loopCtx)
	}()
	go func() {
		defer s.wg.Done()
		_ = s.poller.Run(loopCtx)
	}()

	m.current = s
	metrics.RecordSession()
	slog.Info("order placed", "session_id", order.SessionID, "pizza", pizza.Name, "device_id", deviceID, "deadline", order.Deadline)

	s.notify(ctx, orderReceived(order.SessionID, pizza.Name, now))
	return s, nil
}

func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// TriggerPoll asks the live session to poll right away.
func (m *Manager) TriggerPoll() error {
	s := m.Current()
	if s == nil {
		return ErrNoSession
	}
	s.poller.Trigger()
	return nil
}

// Stop ends the live session, if any, and waits for its loops.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.close()
	}
}
