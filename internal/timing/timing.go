// Package timing converts between chart pulses, wall-clock time and measures
// using a chart's tempo and time signature changes.
package timing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cbegin/kson-go/internal/chart"
	"github.com/cbegin/kson-go/internal/timeline"
)

type (
	Pulse      = timeline.Pulse
	MeasureIdx = timeline.MeasureIdx
)

var (
	ErrNoTempo        = errors.New("timing: chart has no tempo")
	ErrInvalidTempo   = errors.New("timing: tempo must be positive")
	ErrInvalidTimeSig = errors.New("timing: invalid time signature")
)

const (
	msPerMinute = 60000.0
	// pulseSlack absorbs rounding when converting milliseconds back to pulses.
	pulseSlack = 1e-6
)

var defaultTimeSig = chart.TimeSig{N: 4, D: 4}

type tempoSeg struct {
	y   Pulse
	bpm float64
	ms  float64
}

func (s tempoSeg) msPerPulse() float64 {
	return msPerMinute / (s.bpm * float64(timeline.Resolution))
}

type sigSeg struct {
	measure MeasureIdx
	y       Pulse
	length  Pulse
}

// Cache holds precomputed tempo and measure segments. It is immutable and safe
// for concurrent use.
type Cache struct {
	tempo      []tempoSeg
	byPulse    *timeline.Map[Pulse, tempoSeg]
	sigByIdx   *timeline.Map[MeasureIdx, sigSeg]
	sigByPulse *timeline.Map[Pulse, sigSeg]
}

// New builds a cache. The first tempo also applies before its own pulse, and
// measure 0 is 4/4 unless a signature is given for it.
func New(bpm *timeline.Map[Pulse, float64], timeSig *timeline.Map[MeasureIdx, chart.TimeSig]) (*Cache, error) {
	if bpm.Empty() {
		return nil, ErrNoTempo
	}
	c := &Cache{
		byPulse:    timeline.New[Pulse, tempoSeg](),
		sigByIdx:   timeline.New[MeasureIdx, sigSeg](),
		sigByPulse: timeline.New[Pulse, sigSeg](),
	}

	for i, e := range bpm.Entries() {
		y, v := e.Key, e.Value
		if !(v > 0) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %v at pulse %d", ErrInvalidTempo, v, y)
		}
		seg := tempoSeg{y: y, bpm: v}
		if i == 0 {
			if y > 0 {
				// The first tempo also runs from pulse 0.
				c.tempo = append(c.tempo, tempoSeg{y: 0, bpm: v})
			}
			seg.ms = float64(y) * seg.msPerPulse()
		} else {
			prev := c.tempo[len(c.tempo)-1]
			seg.ms = prev.ms + float64(y-prev.y)*prev.msPerPulse()
		}
		c.tempo = append(c.tempo, seg)
	}
	for _, s := range c.tempo {
		c.byPulse.Set(s.y, s)
	}

	var err error
	sigs := timeline.New[MeasureIdx, chart.TimeSig]()
	sigs.Set(0, defaultTimeSig)
	timeSig.Ascend(func(idx MeasureIdx, ts chart.TimeSig) bool {
		if ts.N <= 0 || ts.D <= 0 || timeline.Resolution4*Pulse(ts.N) < Pulse(ts.D) {
			err = fmt.Errorf("%w: %d/%d at measure %d", ErrInvalidTimeSig, ts.N, ts.D, idx)
			return false
		}
		if idx >= 0 {
			sigs.Set(idx, ts)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	var last *sigSeg
	sigs.Ascend(func(idx MeasureIdx, ts chart.TimeSig) bool {
		seg := sigSeg{measure: idx, length: timeline.Resolution4 * Pulse(ts.N) / Pulse(ts.D)}
		if last != nil {
			seg.y = last.y + Pulse(idx-last.measure)*last.length
		}
		c.sigByIdx.Set(idx, seg)
		c.sigByPulse.Set(seg.y, seg)
		last = &seg
		return true
	})
	return c, nil
}

// BPMAt returns the tempo in effect at pulse.
func (c *Cache) BPMAt(pulse Pulse) float64 {
	e, _ := c.byPulse.Owning(pulse)
	return e.Value.bpm
}

// PulseToMs returns the time of pulse in milliseconds from pulse 0.
func (c *Cache) PulseToMs(pulse Pulse) float64 {
	e, _ := c.byPulse.Owning(pulse)
	s := e.Value
	return s.ms + float64(pulse-s.y)*s.msPerPulse()
}

func (c *Cache) PulseToSec(pulse Pulse) float64 {
	return c.PulseToMs(pulse) / 1000
}

// MsToPulse returns the last pulse at or before ms.
func (c *Cache) MsToPulse(ms float64) Pulse {
	i := sort.Search(len(c.tempo), func(i int) bool { return c.tempo[i].ms > ms }) - 1
	if i < 0 {
		i = 0
	}
	s := c.tempo[i]
	return s.y + Pulse(math.Floor((ms-s.ms)/s.msPerPulse()+pulseSlack))
}

// MeasureToPulse returns the first pulse of measure idx.
func (c *Cache) MeasureToPulse(idx MeasureIdx) Pulse {
	e, _ := c.sigByIdx.Owning(idx)
	s := e.Value
	return s.y + Pulse(idx-s.measure)*s.length
}

// PulseToMeasure returns the measure containing pulse.
func (c *Cache) PulseToMeasure(pulse Pulse) MeasureIdx {
	e, _ := c.sigByPulse.Owning(pulse)
	s := e.Value
	d := pulse - s.y
	n := d / s.length
	if d < 0 && d%s.length != 0 {
		n--
	}
	return s.measure + MeasureIdx(n)
}

// MeasureLength returns the length of measure idx in pulses.
func (c *Cache) MeasureLength(idx MeasureIdx) Pulse {
	e, _ := c.sigByIdx.Owning(idx)
	return e.Value.length
}

// ForChart builds a cache from a chart's beat information.
func ForChart(c *chart.ChartData) (*Cache, error) {
	return New(c.Beat.BPM, c.Beat.TimeSig)
}
