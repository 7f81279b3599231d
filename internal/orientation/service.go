// Package orientation runs a BNO055 in a polling loop and publishes the
// latest fused sample.
package orientation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ruwix/balance-bot/internal/calstore"
	"github.com/ruwix/balance-bot/internal/i2c"
	"github.com/ruwix/balance-bot/internal/resetpin"
	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

type Config struct {
	Enable bool
	I2CBus int
	Addr   uint16

	Mode            bno055.Mode
	ExternalCrystal bool
	// AxisRemap is left at the power-on mapping when nil.
	AxisRemap    *bno055.AxisRemap
	ResetGPIO    int
	PollInterval time.Duration

	CalibrationPath string
	Autosave        bool
}

type Snapshot struct {
	Valid    bool
	Detected bool
	Mode     bno055.Mode
	Revision bno055.Revision

	Sample bno055.Sample

	CalibrationLoaded  bool
	CalibrationSavedAt time.Time

	ConsecutiveErrors int
	LastError         string
	UpdatedAt         time.Time
}

// sensor is the subset of *bno055.Device the service drives.
type sensor interface {
	Address() uint16
	Init(mode bno055.Mode) error
	Revision() (bno055.Revision, error)
	SetExternalCrystal(external bool) error
	SetAxisRemap(r bno055.AxisRemap) error
	Calibration() (bno055.Calibration, error)
	SetCalibration(c bno055.Calibration) error
	Read() (bno055.Sample, error)
}

var errNotRunning = errors.New("orientation: service not running")

type Service struct {
	cfg Config

	mu   sync.RWMutex
	snap Snapshot

	bus *i2c.Bus
	dev sensor

	// Owned by the poll goroutine.
	autosaved bool

	saveCh  chan chan error
	running chan struct{}

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func New(cfg Config) *Service {
	if cfg.I2CBus == 0 {
		cfg.I2CBus = 1
	}
	if cfg.Addr == 0 {
		cfg.Addr = bno055.DefaultAddress()
	}
	if cfg.Mode == bno055.ModeConfig {
		cfg.Mode = bno055.ModeNDOF
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Service{
		cfg:     cfg,
		saveCh:  make(chan chan error, 1),
		running: make(chan struct{}),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Close stops the poll loop and releases the bus.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		select {
		case <-s.running:
			<-s.doneCh
		default:
		}
		if s.bus != nil {
			_ = s.bus.Close()
			s.bus = nil
		}
	})
}

func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Start resets and configures the sensor, then polls it until ctx is done or
// Close is called.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("orientation: service is nil")
	}
	if !s.cfg.Enable {
		return nil
	}

	if err := resetpin.Pulse(s.cfg.ResetGPIO, 0); err != nil {
		s.setErr(fmt.Sprintf("reset: %v", err))
		return err
	}

	busPath := fmt.Sprintf("/dev/i2c-%d", s.cfg.I2CBus)
	bus, err := i2c.Open(busPath)
	if err != nil {
		s.setErr(fmt.Sprintf("open %s: %v", busPath, err))
		return err
	}
	s.bus = bus

	dev, err := bno055.New(i2c.NewTransport(bus), s.cfg.Addr)
	if err != nil {
		_ = bus.Close()
		s.bus = nil
		return err
	}
	if err := s.startWith(ctx, dev); err != nil {
		_ = bus.Close()
		s.bus = nil
		return err
	}
	return nil
}

func (s *Service) startWith(ctx context.Context, dev sensor) error {
	if err := s.configure(dev); err != nil {
		s.setErr(err.Error())
		return err
	}
	s.dev = dev
	close(s.running)
	go s.run(ctx)
	return nil
}

// configure brings the device from power-on to the configured operation
// mode. A missing or unreadable calibration file is logged, not fatal.
func (s *Service) configure(dev sensor) error {
	if err := dev.Init(s.cfg.Mode); err != nil {
		return fmt.Errorf("sensor init: %w", err)
	}
	rev, err := dev.Revision()
	if err != nil {
		return fmt.Errorf("sensor revision: %w", err)
	}

	s.mu.Lock()
	s.snap.Detected = true
	s.snap.Mode = s.cfg.Mode
	s.snap.Revision = rev
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"addr": fmt.Sprintf("0x%02X", dev.Address()),
		"sw":   fmt.Sprintf("0x%04X", rev.Software),
		"bl":   rev.Bootloader,
		"mode": s.cfg.Mode,
	}).Info("bno055 detected")

	if s.cfg.ExternalCrystal {
		if err := dev.SetExternalCrystal(true); err != nil {
			return fmt.Errorf("external crystal: %w", err)
		}
	}
	if s.cfg.AxisRemap != nil {
		if err := dev.SetAxisRemap(*s.cfg.AxisRemap); err != nil {
			return fmt.Errorf("axis remap: %w", err)
		}
	}

	if s.cfg.CalibrationPath != "" {
		p, err := calstore.Load(s.cfg.CalibrationPath)
		switch {
		case err != nil:
			log.Warnf("calibration profile not applied: %v", err)
		default:
			if err := dev.SetCalibration(p.Calibration()); err != nil {
				return fmt.Errorf("apply calibration: %w", err)
			}
			s.mu.Lock()
			s.snap.CalibrationLoaded = true
			s.mu.Unlock()
			log.Infof("calibration profile applied from %s (saved %s)", s.cfg.CalibrationPath, p.SavedAt.Format(time.RFC3339))
		}
	}
	return nil
}

// SaveCalibration reads the current profile and writes it to the configured
// path. It runs on the poll goroutine, which owns the device.
func (s *Service) SaveCalibration(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("orientation: service is nil")
	}
	if s.cfg.CalibrationPath == "" {
		return fmt.Errorf("orientation: no calibration path configured")
	}
	select {
	case <-s.running:
	default:
		return errNotRunning
	}

	done := make(chan error, 1)
	select {
	case s.saveCh <- done:
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("orientation: calibration save already in progress")
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-s.doneCh:
		return errNotRunning
	}
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	tick := time.NewTicker(s.cfg.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case done := <-s.saveCh:
			done <- s.saveCalibration()
		case <-tick.C:
			s.poll()
		}
	}
}

func (s *Service) poll() {
	sample, err := s.dev.Read()
	if err != nil {
		s.mu.Lock()
		s.snap.Valid = false
		s.snap.ConsecutiveErrors++
		n := s.snap.ConsecutiveErrors
		s.snap.LastError = err.Error()
		s.snap.UpdatedAt = time.Now()
		s.mu.Unlock()
		if n == 1 || n%50 == 0 {
			log.Warnf("bno055 read failed (%d in a row): %v", n, err)
		}
		return
	}

	s.mu.Lock()
	s.snap.Valid = true
	s.snap.Sample = sample
	s.snap.ConsecutiveErrors = 0
	s.snap.LastError = ""
	s.snap.UpdatedAt = sample.Time
	s.mu.Unlock()

	if s.cfg.Autosave && !s.autosaved && sample.Calibration.FullyCalibrated() {
		if err := s.saveCalibration(); err != nil {
			log.Warnf("calibration autosave failed: %v", err)
			return
		}
		s.autosaved = true
	}
}

func (s *Service) saveCalibration() error {
	cal, err := s.dev.Calibration()
	if err != nil {
		return fmt.Errorf("read calibration: %w", err)
	}
	now := time.Now()
	if err := calstore.Save(s.cfg.CalibrationPath, calstore.FromCalibration(cal, s.dev.Address(), now)); err != nil {
		return err
	}
	s.mu.Lock()
	s.snap.CalibrationSavedAt = now
	s.mu.Unlock()
	log.Infof("calibration profile saved to %s", s.cfg.CalibrationPath)
	return nil
}

func (s *Service) setErr(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Valid = false
	s.snap.LastError = msg
	s.snap.UpdatedAt = time.Now()
}
