package analysis

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestPowerSpectrum_SinePeak(t *testing.T) {
	const (
		n        = 300
		interval = 0.45
		freq     = 0.2
	)
	data := make([]float64, n)
	for i := range data {
		data[i] = 5 + math.Sin(2*math.Pi*freq*float64(i)*interval)
	}

	ps := PowerSpectrum(data)
	if len(ps) != n/2 {
		t.Fatalf("expected %d bins, got %d", n/2, len(ps))
	}
	if ps[0] > 1e-6 {
		t.Errorf("mean not removed, DC bin %g", ps[0])
	}

	got, power := DominantFrequency(ps, n, interval)
	if power <= 0 {
		t.Fatal("expected positive peak power")
	}
	binWidth := 1 / (n * interval)
	if math.Abs(got-freq) > binWidth {
		t.Errorf("expected dominant frequency ~%f, got %f", freq, got)
	}
}

func TestPowerSpectrum_Short(t *testing.T) {
	if ps := PowerSpectrum([]float64{1}); len(ps) != 0 {
		t.Errorf("expected empty spectrum, got %v", ps)
	}
	if f, p := DominantFrequency(nil, 0, 1); f != 0 || p != 0 {
		t.Errorf("expected zero for empty input, got %f %f", f, p)
	}
}

func TestProject(t *testing.T) {
	pos := []r3.Vec{{X: 1, Y: 2, Z: 3}, {X: -1, Y: 0, Z: 5}}

	proj, err := Project(pos, "x", "z")
	if err != nil {
		t.Fatal(err)
	}
	if proj.Points[0] != (Point2{1, 3}) || proj.Points[1] != (Point2{-1, 5}) {
		t.Errorf("unexpected projection %v", proj.Points)
	}

	if _, err := Project(pos, "x", "w"); err == nil {
		t.Error("expected error for unknown axis")
	}
	if _, err := Project(pos, "y", "y"); err == nil {
		t.Error("expected error for identical axes")
	}
}

func TestScatterToASCII(t *testing.T) {
	proj := &Projection{XAxis: "x", YAxis: "y", Points: []Point2{{-1, -1}, {1, 1}, {1, 1}}}

	out := ScatterToASCII(proj, 20, 10)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(lines))
	}
	for _, l := range lines {
		if n := len([]rune(l)); n != 20 {
			t.Fatalf("expected 20 columns, got %d", n)
		}
	}
	if !strings.ContainsRune(out, '●') || !strings.ContainsRune(out, '┼') {
		t.Errorf("expected dense cell and axis crossing:\n%s", out)
	}

	if ScatterToASCII(nil, 10, 10) != "" {
		t.Error("expected empty output for nil projection")
	}
}
