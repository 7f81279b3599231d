package orientation

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ruwix/balance-bot/internal/calstore"
	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

type fakeSensor struct {
	mu sync.Mutex

	initErr error
	readErr error
	sample  bno055.Sample
	cal     bno055.Calibration

	initMode   bno055.Mode
	crystal    bool
	remap      *bno055.AxisRemap
	appliedCal *bno055.Calibration
	calibReads int
	reads      int
}

func (f *fakeSensor) Address() uint16 { return 0x28 }

func (f *fakeSensor) Init(mode bno055.Mode) error {
	f.initMode = mode
	return f.initErr
}

func (f *fakeSensor) Revision() (bno055.Revision, error) {
	return bno055.Revision{Software: 0x0311, Bootloader: 0x15}, nil
}

func (f *fakeSensor) SetExternalCrystal(external bool) error {
	f.crystal = external
	return nil
}

func (f *fakeSensor) SetAxisRemap(r bno055.AxisRemap) error {
	f.remap = &r
	return nil
}

func (f *fakeSensor) Calibration() (bno055.Calibration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calibReads++
	return f.cal, nil
}

func (f *fakeSensor) SetCalibration(c bno055.Calibration) error {
	f.appliedCal = &c
	return nil
}

func (f *fakeSensor) Read() (bno055.Sample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return bno055.Sample{}, f.readErr
	}
	return f.sample, nil
}

func testCalibration() bno055.Calibration {
	return bno055.CalibrationFromOffsets(bno055.CalibrationOffsets{
		Accel:       [3]int16{1, 2, 3},
		Mag:         [3]int16{-4, 5, -6},
		Gyro:        [3]int16{0, 0, 1},
		AccelRadius: 1000,
		MagRadius:   640,
	})
}

func TestNew_Defaults(t *testing.T) {
	s := New(Config{})
	if s.cfg.I2CBus != 1 || s.cfg.Addr != 0x28 || s.cfg.Mode != bno055.ModeNDOF || s.cfg.PollInterval != 100*time.Millisecond {
		t.Fatalf("cfg=%+v", s.cfg)
	}
}

func TestStart_DisabledIsNoop(t *testing.T) {
	s := New(Config{Enable: false})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap := s.Snapshot(); snap.Detected {
		t.Fatalf("expected not detected")
	}
	s.Close()
}

func TestConfigure_AppliesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.yaml")
	cal := testCalibration()
	if err := calstore.Save(path, calstore.FromCalibration(cal, 0x28, time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	remap := bno055.AxisRemap{X: 1, Y: 0, Z: 2, ZSign: 1}
	s := New(Config{Mode: bno055.ModeIMUPlus, ExternalCrystal: true, AxisRemap: &remap, CalibrationPath: path})
	f := &fakeSensor{}
	if err := s.configure(f); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if f.initMode != bno055.ModeIMUPlus {
		t.Fatalf("init mode=%v want imuplus", f.initMode)
	}
	if !f.crystal {
		t.Fatalf("expected external crystal")
	}
	if f.remap == nil || *f.remap != remap {
		t.Fatalf("remap=%v want %+v", f.remap, remap)
	}
	if f.appliedCal == nil || *f.appliedCal != cal {
		t.Fatalf("applied calibration=%v want %v", f.appliedCal, cal)
	}
	snap := s.Snapshot()
	if !snap.Detected || !snap.CalibrationLoaded || snap.Revision.Software != 0x0311 {
		t.Fatalf("snap=%+v", snap)
	}
}

func TestConfigure_MissingCalibrationIsNotFatal(t *testing.T) {
	s := New(Config{CalibrationPath: filepath.Join(t.TempDir(), "missing.yaml")})
	f := &fakeSensor{}
	if err := s.configure(f); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if f.appliedCal != nil {
		t.Fatalf("unexpected calibration write")
	}
	if s.Snapshot().CalibrationLoaded {
		t.Fatalf("expected CalibrationLoaded=false")
	}
}

func TestConfigure_InitFailure(t *testing.T) {
	s := New(Config{})
	f := &fakeSensor{initErr: bno055.ErrChipID}
	err := s.startWith(context.Background(), f)
	if !errors.Is(err, bno055.ErrChipID) {
		t.Fatalf("err=%v want ErrChipID", err)
	}
	if snap := s.Snapshot(); snap.Detected || snap.LastError == "" {
		t.Fatalf("snap=%+v", snap)
	}
	s.Close()
}

func TestPoll_UpdatesSnapshot(t *testing.T) {
	s := New(Config{})
	now := time.Now()
	f := &fakeSensor{sample: bno055.Sample{Time: now, Euler: bno055.Vector{X: 90}, TempC: 24}}
	s.dev = f

	s.poll()
	snap := s.Snapshot()
	if !snap.Valid || snap.Sample.Euler.X != 90 || snap.Sample.TempC != 24 || !snap.UpdatedAt.Equal(now) {
		t.Fatalf("snap=%+v", snap)
	}
}

func TestPoll_CountsErrorsAndRecovers(t *testing.T) {
	s := New(Config{})
	f := &fakeSensor{readErr: errors.New("nack")}
	s.dev = f

	s.poll()
	s.poll()
	snap := s.Snapshot()
	if snap.Valid || snap.ConsecutiveErrors != 2 || snap.LastError != "nack" {
		t.Fatalf("snap=%+v", snap)
	}

	f.readErr = nil
	s.poll()
	snap = s.Snapshot()
	if !snap.Valid || snap.ConsecutiveErrors != 0 || snap.LastError != "" {
		t.Fatalf("snap=%+v", snap)
	}
}

func TestPoll_AutosavesOnceWhenFullyCalibrated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.yaml")
	s := New(Config{CalibrationPath: path, Autosave: true})
	f := &fakeSensor{cal: testCalibration()}
	s.dev = f

	// Not yet calibrated: nothing saved.
	f.sample.Calibration = bno055.CalibrationStatus{System: 3, Gyro: 3, Accel: 2, Mag: 3}
	s.poll()
	if f.calibReads != 0 {
		t.Fatalf("calibration read before fully calibrated")
	}

	f.sample.Calibration = bno055.CalibrationStatus{System: 3, Gyro: 3, Accel: 3, Mag: 3}
	s.poll()
	s.poll()
	if f.calibReads != 1 {
		t.Fatalf("calibration reads=%d want 1", f.calibReads)
	}

	p, err := calstore.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Calibration() != testCalibration() {
		t.Fatalf("saved calibration mismatch")
	}
	if s.Snapshot().CalibrationSavedAt.IsZero() {
		t.Fatalf("expected CalibrationSavedAt")
	}
}

func TestSaveCalibration_NotRunning(t *testing.T) {
	s := New(Config{CalibrationPath: filepath.Join(t.TempDir(), "cal.yaml")})
	if err := s.SaveCalibration(context.Background()); !errors.Is(err, errNotRunning) {
		t.Fatalf("err=%v want errNotRunning", err)
	}
}

func TestSaveCalibration_NoPath(t *testing.T) {
	s := New(Config{})
	if err := s.SaveCalibration(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRun_PollsAndSavesOnRequest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.yaml")
	s := New(Config{PollInterval: time.Millisecond, CalibrationPath: path})
	f := &fakeSensor{cal: testCalibration(), sample: bno055.Sample{Time: time.Now()}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.startWith(ctx, f); err != nil {
		t.Fatalf("startWith: %v", err)
	}
	defer s.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !s.Snapshot().Valid {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for first sample")
		}
		time.Sleep(time.Millisecond)
	}

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer reqCancel()
	if err := s.SaveCalibration(reqCtx); err != nil {
		t.Fatalf("SaveCalibration: %v", err)
	}
	if _, err := calstore.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
}
