package calstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ruwix/balance-bot/internal/sensors/bno055"
)

func sampleCalibration() bno055.Calibration {
	return bno055.CalibrationFromOffsets(bno055.CalibrationOffsets{
		Accel:       [3]int16{-21, 4, 17},
		Mag:         [3]int16{-310, 95, -402},
		Gyro:        [3]int16{-2, 1, 0},
		AccelRadius: 1000,
		MagRadius:   712,
	})
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cal.yaml")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cal := sampleCalibration()

	if err := Save(path, FromCalibration(cal, 0x28, at)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := p.Calibration(); got != cal {
		t.Fatalf("calibration=%v want %v", got, cal)
	}
	if !p.SavedAt.Equal(at) || p.Address != 0x28 {
		t.Fatalf("meta saved_at=%v address=0x%X", p.SavedAt, p.Address)
	}
}

func TestSave_WritesReadableYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.yaml")
	if err := Save(path, FromCalibration(sampleCalibration(), 0x28, time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	for _, key := range []string{"accel_offset:", "mag_offset:", "gyro_offset:", "mag_radius: 712"} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("missing %q in:\n%s", key, b)
		}
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleaned up, got %d entries", len(entries))
	}
}

func TestLoad_RejectsEmptyProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.yaml")
	if err := os.WriteFile(path, []byte("accel_offset: [1, 2, 3]\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !os.IsNotExist(err) {
		t.Fatalf("err=%v want not-exist", err)
	}
}
