package resetpin

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeLine struct {
	values []int
	closed bool
	err    error
}

func (f *fakeLine) SetValue(v int) error {
	if f.err != nil {
		return f.err
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeLine) Close() error {
	f.closed = true
	return nil
}

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var got []time.Duration
	old := sleep
	sleep = func(d time.Duration) { got = append(got, d) }
	t.Cleanup(func() { sleep = old })
	return &got
}

func stubLine(t *testing.T, l *fakeLine, openErr error) {
	t.Helper()
	old := openLineFn
	openLineFn = func(pin int) (line, error) {
		if openErr != nil {
			return nil, openErr
		}
		return l, nil
	}
	t.Cleanup(func() { openLineFn = old })
}

func TestPulse_ZeroPinIsNoop(t *testing.T) {
	stubLine(t, nil, errors.New("should not open"))
	if err := Pulse(0, 0); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
}

func TestPulse_NegativePin(t *testing.T) {
	if err := Pulse(-4, 0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPulse_DrivesLowThenHigh(t *testing.T) {
	sleeps := stubSleep(t)
	l := &fakeLine{}
	stubLine(t, l, nil)

	if err := Pulse(17, 0); err != nil {
		t.Fatalf("Pulse: %v", err)
	}
	if !reflect.DeepEqual(l.values, []int{0, 1}) {
		t.Fatalf("values=%v want [0 1]", l.values)
	}
	if !l.closed {
		t.Fatalf("expected line closed")
	}
	want := []time.Duration{defaultPulse, bootDelay}
	if !reflect.DeepEqual(*sleeps, want) {
		t.Fatalf("sleeps=%v want %v", *sleeps, want)
	}
}

func TestPulse_SetValueErrorClosesLine(t *testing.T) {
	stubSleep(t)
	l := &fakeLine{err: errors.New("busy")}
	stubLine(t, l, nil)

	if err := Pulse(17, time.Millisecond); err == nil {
		t.Fatalf("expected error")
	}
	if !l.closed {
		t.Fatalf("expected line closed")
	}
}
