package weatherlinklive

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is how often the background poller refreshes the cache
	DefaultPollInterval = 5 * time.Second
	// DefaultDiscoveryDelay separates the first fetch from transmitter discovery
	DefaultDiscoveryDelay = 500 * time.Millisecond
)

// Options tunes the station's timing and unit handling
type Options struct {
	PollInterval   time.Duration
	DiscoveryDelay time.Duration
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	RainDivisor    float64
}

// DefaultOptions returns the timings the WLL is known to be comfortable with
func DefaultOptions() Options {
	return Options{
		PollInterval:   DefaultPollInterval,
		DiscoveryDelay: DefaultDiscoveryDelay,
		ConnectTimeout: defaultConnectTimeout,
		RequestTimeout: defaultRequestTimeout,
		RainDivisor:    DefaultRainDivisor,
	}
}

// StationConfig is everything needed to build a Station
type StationConfig struct {
	Name       string
	Endpoint   Endpoint
	Selection  Selection
	Thresholds Thresholds
	Options    Options
}

// Settings is the persistable part of a Station's state
type Settings struct {
	Endpoint   Endpoint
	Selection  Selection
	Thresholds Thresholds
}

// Station owns the connection to one WLL: the HTTP client, the background
// poller, the transmitter selections and the reading cache.
//
// devMu is the device access lock. Every fetch+parse pass, discovery pass and
// selection change holds it. The poller only ever TryLocks it and skips its
// turn when a foreground call is in flight.
type Station struct {
	name   string
	opts   Options
	logger *zap.SugaredLogger

	devMu sync.Mutex

	stateMu    sync.RWMutex
	endpoint   Endpoint
	thresholds Thresholds
	connected  bool
	client     *Client
	sessionID  string

	pollCancel context.CancelFunc
	pollDone   chan struct{}

	cache    *ReadingCache
	resolver *Resolver

	newClient func(Endpoint, time.Duration, time.Duration) (*Client, error)
}

// NewStation creates a disconnected WeatherLink Live station
func NewStation(cfg StationConfig, logger *zap.SugaredLogger) *Station {
	opts := cfg.Options
	def := DefaultOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.DiscoveryDelay < 0 {
		opts.DiscoveryDelay = 0
	}
	if opts.RainDivisor <= 0 {
		opts.RainDivisor = def.RainDivisor
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	name := cfg.Name
	if name == "" {
		name = "weatherlink-live"
	}

	return &Station{
		name:       name,
		opts:       opts,
		logger:     logger,
		endpoint:   cfg.Endpoint,
		thresholds: cfg.Thresholds,
		cache:      NewReadingCache(),
		resolver:   NewResolver(cfg.Selection),
		newClient:  NewClient,
	}
}

// StationName returns the station name
func (s *Station) StationName() string {
	return s.name
}

// Connect validates the endpoint, builds the HTTP client, runs one
// fetch+parse pass and one discovery pass, and starts the poller. Any failure
// leaves the station disconnected.
func (s *Station) Connect(ctx context.Context) error {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	if s.IsConnected() {
		return nil
	}

	ep := s.Endpoint()
	if !ep.IsSet() {
		return ErrNoEndpoint
	}

	client, err := s.newClient(ep, s.opts.ConnectTimeout, s.opts.RequestTimeout)
	if err != nil {
		return err
	}

	sessionID := uuid.NewString()
	logger := s.logger.With("session", sessionID, "url", client.BaseURL())
	logger.Infof("Connecting to WeatherLink Live [%s]", s.name)

	s.cache.Reset()
	if err := s.refresh(ctx, client); err != nil {
		client.Close()
		logger.Errorf("Initial fetch failed: %v", err)
		return commandFailed(err)
	}

	if s.opts.DiscoveryDelay > 0 {
		select {
		case <-ctx.Done():
			client.Close()
			return commandFailed(ctx.Err())
		case <-time.After(s.opts.DiscoveryDelay):
		}
	}

	if err := s.discover(ctx, client); err != nil {
		client.Close()
		logger.Errorf("Transmitter discovery failed: %v", err)
		return commandFailed(err)
	}

	reset := s.resolver.ValidateSelections()
	for _, c := range reset {
		logger.Warnf("Transmitter for %s is no longer reporting, reset to %d", c, DefaultTransmitterID)
	}
	if len(reset) > 0 {
		// the first pass was applied with the stale selection
		if err := s.refresh(ctx, client); err != nil {
			logger.Warnf("Refresh after transmitter reset failed: %v", err)
		}
	}

	s.stateMu.Lock()
	s.client = client
	s.connected = true
	s.sessionID = sessionID
	s.stateMu.Unlock()

	if s.pollDone == nil {
		pollCtx, cancel := context.WithCancel(context.Background())
		s.pollCancel = cancel
		s.pollDone = make(chan struct{})
		go s.poll(pollCtx, logger, s.pollDone)
	}

	logger.Infof("Connected to %s", s.cache.Firmware())
	return nil
}

// Disconnect stops the poller, waits for it to return and releases the HTTP
// client. Calling it while disconnected is a no-op.
func (s *Station) Disconnect() {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	if !s.IsConnected() {
		return
	}

	if s.pollDone != nil {
		s.pollCancel()
		<-s.pollDone
		s.pollCancel = nil
		s.pollDone = nil
	}

	s.stateMu.Lock()
	if s.client != nil {
		s.client.Close()
	}
	s.client = nil
	s.connected = false
	s.stateMu.Unlock()

	s.cache.Reset()

	s.logger.Infof("Disconnected from WeatherLink Live [%s]", s.name)
}

// SessionID identifies the current connection in logs; empty when never connected
func (s *Station) SessionID() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.sessionID
}

// IsConnected reports whether Connect has succeeded and Disconnect hasn't run
func (s *Station) IsConnected() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.connected
}

// Endpoint returns the configured device address
func (s *Station) Endpoint() Endpoint {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.endpoint
}

// SetEndpoint changes the device address. It fails with ErrConnected while a
// connection is active.
func (s *Station) SetEndpoint(ep Endpoint) error {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.connected {
		return ErrConnected
	}
	s.endpoint = ep
	return nil
}

// Thresholds returns the wind thresholds
func (s *Station) Thresholds() Thresholds {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.thresholds
}

// SetThresholds replaces the wind thresholds; allowed at any time
func (s *Station) SetThresholds(th Thresholds) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.thresholds = th
}

// Settings returns the state worth persisting
func (s *Station) Settings() Settings {
	return Settings{
		Endpoint:   s.Endpoint(),
		Selection:  s.resolver.Selection(),
		Thresholds: s.Thresholds(),
	}
}

// Refresh runs one synchronous fetch+parse pass. A failed pass is logged and
// the cache keeps the previous readings; the only error is ErrNotConnected.
func (s *Station) Refresh(ctx context.Context) error {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	client := s.currentClient()
	if client == nil {
		return ErrNotConnected
	}
	if err := s.refresh(ctx, client); err != nil {
		s.logger.Warnf("Refresh failed, keeping previous readings: %v", err)
	}
	return nil
}

// DiscoverTransmitters rebuilds every channel's candidate set from a fresh
// fetch
func (s *Station) DiscoverTransmitters(ctx context.Context) error {
	s.devMu.Lock()
	defer s.devMu.Unlock()

	client := s.currentClient()
	if client == nil {
		return ErrNotConnected
	}
	return s.discover(ctx, client)
}

// ChannelTransmitter returns the transmitter selected for a channel
func (s *Station) ChannelTransmitter(c Channel) (int, error) {
	return s.resolver.Selected(c)
}

// ChannelCandidates returns the transmitters last discovered for a channel
func (s *Station) ChannelCandidates(c Channel) ([]int, error) {
	return s.resolver.Candidates(c)
}

// Transmitters describes selection and candidates for every channel
func (s *Station) Transmitters() []ChannelTransmitters {
	return s.resolver.Describe()
}

// SetChannelTransmitter selects the transmitter for a channel. When connected
// it refreshes the cache right away; a failed refresh is logged and the
// previous readings stay in place.
func (s *Station) SetChannelTransmitter(ctx context.Context, c Channel, txid int) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, int(c))
	}

	s.devMu.Lock()
	defer s.devMu.Unlock()

	if err := s.resolver.Select(c, txid); err != nil {
		return err
	}
	s.logger.Debugf("Transmitter for %s set to %d", c, txid)

	client := s.currentClient()
	if client == nil {
		return nil
	}
	if err := s.refresh(ctx, client); err != nil {
		s.logger.Warnf("Refresh after transmitter change failed: %v", err)
	}
	return nil
}

// Readings returns a copy of the cached readings
func (s *Station) Readings() ReadingSnapshot {
	return s.cache.Snapshot()
}

func (s *Station) AmbientTemp() float64        { return s.cache.AmbientTemp() }
func (s *Station) WindSpeed() float64          { return s.cache.WindSpeed() }
func (s *Station) WindCondition() float64      { return s.cache.WindCondition() }
func (s *Station) Humidity() float64           { return s.cache.Humidity() }
func (s *Station) DewPoint() float64           { return s.cache.DewPoint() }
func (s *Station) RainFlag() float64           { return s.cache.RainFlag() }
func (s *Station) RainCondition() float64      { return s.cache.RainCondition() }
func (s *Station) BarometricPressure() float64 { return s.cache.BarometricPressure() }

// WindSpeedUnit is always km/h
func (s *Station) WindSpeedUnit() WindSpeedUnit {
	return UnitKPH
}

// Firmware returns the device string, or "N/A" while disconnected
func (s *Station) Firmware() string {
	if !s.IsConnected() {
		return "N/A"
	}
	return s.cache.Firmware()
}

// SafetyReport classifies the cached readings against the thresholds
func (s *Station) SafetyReport() (SafetyReport, error) {
	if !s.IsConnected() {
		return SafetyReport{}, ErrNotConnected
	}
	return Classify(s.cache.Snapshot(), s.Thresholds()), nil
}

// IsSafe refreshes the cache and reports whether the roof may stay open.
// A failed refresh leaves the decision to the last known readings.
func (s *Station) IsSafe(ctx context.Context) (bool, error) {
	if err := s.Refresh(ctx); err != nil {
		return false, err
	}
	rep, err := s.SafetyReport()
	if err != nil {
		return false, err
	}
	return !rep.CloseRoof, nil
}

// commandFailed makes sure a failed pass matches ErrCommandFailed while
// keeping the underlying cause reachable through errors.Is and errors.As
func commandFailed(err error) error {
	if errors.Is(err, ErrCommandFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCommandFailed, err)
}

func (s *Station) currentClient() *Client {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if !s.connected {
		return nil
	}
	return s.client
}

// refresh runs one fetch+parse+convert pass. Caller holds devMu.
func (s *Station) refresh(ctx context.Context, client *Client) error {
	body, err := client.FetchConditions(ctx)
	if err != nil {
		return err
	}
	cc, err := ParseConditions(body)
	if err != nil {
		return err
	}
	s.cache.Apply(cc, s.resolver.Selection(), s.opts.RainDivisor)
	return nil
}

// discover rebuilds the candidate sets. Caller holds devMu.
func (s *Station) discover(ctx context.Context, client *Client) error {
	s.resolver.Clear()

	body, err := client.FetchConditions(ctx)
	if err != nil {
		return err
	}
	cc, err := ParseConditions(body)
	if err != nil {
		return err
	}
	s.resolver.Rebuild(cc.Conditions)

	for _, t := range s.resolver.Describe() {
		s.logger.Debugf("Channel %s: selected %d, candidates %v", t.Channel, t.Selected, t.Candidates)
	}
	return nil
}

// poll refreshes the cache every PollInterval until ctx is cancelled. It never
// waits for devMu: if a foreground call holds it, this cycle is skipped.
func (s *Station) poll(ctx context.Context, logger *zap.SugaredLogger, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(s.opts.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}

		if s.devMu.TryLock() {
			client := s.currentClient()
			if client != nil {
				if err := s.refresh(ctx, client); err != nil {
					logger.Debugf("Poll failed, keeping previous readings: %v", err)
				}
			}
			s.devMu.Unlock()
		} else {
			logger.Debug("Device busy, skipping poll")
		}

		timer.Reset(s.opts.PollInterval)
	}
}
