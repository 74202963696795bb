// Package chart holds the in-memory representation of a KSON chart. The types
// are plain records filled by the loader; timelines are shared pointers and are
// treated as read-only once loading has finished.
package chart

import (
	"encoding/json"

	"github.com/cbegin/kson-go/internal/effects"
	"github.com/cbegin/kson-go/internal/graph"
	"github.com/cbegin/kson-go/internal/timeline"
)

type (
	Pulse      = timeline.Pulse
	RelPulse   = timeline.RelPulse
	MeasureIdx = timeline.MeasureIdx
)

const (
	NumBTLanes    = 4
	NumFXLanes    = 2
	NumLaserLanes = 2
)

type ChartData struct {
	Meta   MetaInfo
	Beat   BeatInfo
	Gauge  GaugeInfo
	Note   NoteInfo
	Audio  AudioInfo
	Camera CameraInfo
	BG     BGInfo
	Editor EditorInfo
	Compat CompatInfo
	// Impl is the untouched "impl" object for implementation specific data.
	Impl json.RawMessage

	Warnings []string
}

// New returns chart data with every timeline allocated and the KSON defaults
// applied.
func New() *ChartData {
	c := &ChartData{
		Meta: MetaInfo{Level: 1},
		Beat: BeatInfo{
			BPM:         timeline.New[Pulse, float64](),
			TimeSig:     timeline.New[MeasureIdx, TimeSig](),
			ScrollSpeed: timeline.New[Pulse, graph.GraphPoint](),
			Stop:        timeline.New[Pulse, RelPulse](),
		},
		Audio: AudioInfo{
			BGM: BGMInfo{Vol: 1, Preview: BGMPreviewInfo{Duration: DefaultPreviewDuration}},
			KeySound: KeySoundInfo{
				FX: KeySoundFXInfo{ChipEvent: map[string][NumFXLanes]*timeline.Map[Pulse, KeySoundInvokeFX]{}},
				Laser: KeySoundLaserInfo{
					Vol:       timeline.New[Pulse, float64](),
					SlamEvent: map[string]*timeline.Map[Pulse, struct{}]{},
				},
			},
			AudioEffect: effects.Info{
				FX: effects.FXInfo{
					ParamChange: effects.ParamChanges{},
					LongEvent:   map[string][NumFXLanes]*timeline.Map[Pulse, effects.Params]{},
				},
				Laser: effects.LaserInfo{
					ParamChange:      effects.ParamChanges{},
					PulseEvent:       map[string]*timeline.Map[Pulse, struct{}]{},
					LegacyFilterGain: timeline.New[Pulse, float64](),
				},
			},
		},
		Camera: CameraInfo{
			Tilt: timeline.New[Pulse, graph.TiltValue](),
			Cam: CamInfo{
				Body: CamGraphs{
					ZoomBottom:  timeline.New[Pulse, graph.GraphPoint](),
					ZoomSide:    timeline.New[Pulse, graph.GraphPoint](),
					ZoomTop:     timeline.New[Pulse, graph.GraphPoint](),
					RotationDeg: timeline.New[Pulse, graph.GraphPoint](),
					CenterSplit: timeline.New[Pulse, graph.GraphPoint](),
				},
				PatternLaser: CamPatternLaserSlamEvent{
					Spin:     timeline.New[Pulse, CamPatternInvokeSpin](),
					HalfSpin: timeline.New[Pulse, CamPatternInvokeSpin](),
					Swing:    timeline.New[Pulse, CamPatternInvokeSwing](),
				},
			},
		},
		BG: BGInfo{Legacy: LegacyBGInfo{Layer: LegacyLayer{Rotation: LayerRotation{Tilt: true, Spin: true}}}},
		Editor: EditorInfo{Comment: timeline.New[Pulse, string]()},
		Compat: CompatInfo{KSHUnknown: KSHUnknown{
			Meta:   map[string]string{},
			Option: map[string][]PulseString{},
		}},
	}
	for i := range c.Note.BT {
		c.Note.BT[i] = timeline.New[Pulse, Interval]()
	}
	for i := range c.Note.FX {
		c.Note.FX[i] = timeline.New[Pulse, Interval]()
	}
	for i := range c.Note.Laser {
		c.Note.Laser[i] = timeline.New[Pulse, graph.LaserSection]()
	}
	return c
}

// DefaultPreviewDuration is the BGM preview length in milliseconds.
const DefaultPreviewDuration = 15000

// MetaChartData is the subset of a chart needed to list it in a song select.
type MetaChartData struct {
	Meta  MetaInfo
	Audio MetaAudioInfo

	Warnings []string
}

// DifficultyInfo is the difficulty slot. A named difficulty always uses slot 3.
type DifficultyInfo struct {
	Idx  int32
	Name string
}

type MetaInfo struct {
	Title             string
	TitleTranslit     string
	TitleImgFilename  string
	Artist            string
	ArtistTranslit    string
	ArtistImgFilename string
	ChartAuthor       string
	Difficulty        DifficultyInfo
	Level             int32
	DispBPM           string
	StdBPM            float64
	JacketFilename    string
	JacketAuthor      string
	IconFilename      string
	Information       string
}

type TimeSig struct {
	N int32
	D int32
}

type BeatInfo struct {
	BPM         *timeline.Map[Pulse, float64]
	TimeSig     *timeline.Map[MeasureIdx, TimeSig]
	ScrollSpeed *graph.Graph
	// Stop maps a pulse to the length of the scroll stop starting there.
	Stop *timeline.Map[Pulse, RelPulse]
}

type GaugeInfo struct {
	Total uint32
}

// Interval is a note. A zero Length is a chip note, anything longer is a long note.
type Interval struct {
	Length RelPulse
}

type (
	Lane      = timeline.Map[Pulse, Interval]
	LaserLane = timeline.Map[Pulse, graph.LaserSection]
)

type NoteInfo struct {
	BT    [NumBTLanes]*Lane
	FX    [NumFXLanes]*Lane
	Laser [NumLaserLanes]*LaserLane
}

// Count returns the number of BT and FX notes.
func (n NoteInfo) Count() int {
	total := 0
	for _, l := range n.BT {
		total += l.Len()
	}
	for _, l := range n.FX {
		total += l.Len()
	}
	return total
}

// CountInRange returns the number of BT and FX notes starting in [from, to).
func (n NoteInfo) CountInRange(from, to Pulse) int {
	total := 0
	count := func(Pulse, Interval) bool {
		total++
		return true
	}
	for _, l := range n.BT {
		l.AscendRange(from, to, count)
	}
	for _, l := range n.FX {
		l.AscendRange(from, to, count)
	}
	return total
}

// LaserSectionCount returns the number of laser sections on both lanes.
func (n NoteInfo) LaserSectionCount() int {
	return n.Laser[0].Len() + n.Laser[1].Len()
}

// LastPulse returns the pulse at which the last note or laser section ends.
func (n NoteInfo) LastPulse() Pulse {
	var last Pulse
	lanes := make([]*Lane, 0, NumBTLanes+NumFXLanes)
	lanes = append(lanes, n.BT[:]...)
	lanes = append(lanes, n.FX[:]...)
	for _, l := range lanes {
		l.Ascend(func(y Pulse, iv Interval) bool {
			if end := y + Pulse(iv.Length); end > last {
				last = end
			}
			return true
		})
	}
	for _, l := range n.Laser {
		if e, ok := l.Last(); ok {
			end := e.Key
			if p, ok := e.Value.V.Last(); ok {
				end += Pulse(p.Key)
			}
			if end > last {
				last = end
			}
		}
	}
	return last
}

type BGMPreviewInfo struct {
	Offset   int32
	Duration int32
}

type LegacyBGMInfo struct {
	FilenameF  string
	FilenameP  string
	FilenameFP string
}

type BGMInfo struct {
	Filename string
	Vol      float64
	Offset   int32
	Preview  BGMPreviewInfo
	Legacy   LegacyBGMInfo
}

type MetaBGMInfo struct {
	Filename string
	Vol      float64
	Preview  BGMPreviewInfo
}

type MetaAudioInfo struct {
	BGM MetaBGMInfo
}

// KeySoundInvokeFX is one FX chip key sound.
type KeySoundInvokeFX struct {
	Vol float64
}

type KeySoundFXInfo struct {
	ChipEvent map[string][NumFXLanes]*timeline.Map[Pulse, KeySoundInvokeFX]
}

type KeySoundLaserInfo struct {
	Vol       *timeline.Map[Pulse, float64]
	SlamEvent map[string]*timeline.Map[Pulse, struct{}]
	// LegacyVolAuto mirrors the KSH "chokkakuautovol" option.
	LegacyVolAuto bool
}

type KeySoundInfo struct {
	FX    KeySoundFXInfo
	Laser KeySoundLaserInfo
}

type AudioInfo struct {
	BGM         BGMInfo
	KeySound    KeySoundInfo
	AudioEffect effects.Info
}

// CamGraphs are the camera body graphs.
type CamGraphs struct {
	ZoomBottom  *graph.Graph
	ZoomSide    *graph.Graph
	ZoomTop     *graph.Graph
	RotationDeg *graph.Graph
	CenterSplit *graph.Graph
}

// Named returns the graphs with their KSON names in a fixed order.
func (c CamGraphs) Named() []NamedGraph {
	return []NamedGraph{
		{"zoom_bottom", c.ZoomBottom},
		{"zoom_side", c.ZoomSide},
		{"zoom_top", c.ZoomTop},
		{"rotation_deg", c.RotationDeg},
		{"center_split", c.CenterSplit},
	}
}

type NamedGraph struct {
	Name  string
	Graph *graph.Graph
}

type CamPatternInvokeSpin struct {
	D      int32
	Length RelPulse
}

type CamPatternInvokeSwingValue struct {
	Scale      float64
	Repeat     int32
	DecayOrder int32
}

type CamPatternInvokeSwing struct {
	D      int32
	Length RelPulse
	V      CamPatternInvokeSwingValue
}

// DefaultSwingValue is used for fields a swing event leaves out.
func DefaultSwingValue() CamPatternInvokeSwingValue {
	return CamPatternInvokeSwingValue{Scale: 250, Repeat: 1}
}

type CamPatternLaserSlamEvent struct {
	Spin     *timeline.Map[Pulse, CamPatternInvokeSpin]
	HalfSpin *timeline.Map[Pulse, CamPatternInvokeSpin]
	Swing    *timeline.Map[Pulse, CamPatternInvokeSwing]
}

type CamInfo struct {
	Body         CamGraphs
	PatternLaser CamPatternLaserSlamEvent
}

type CameraInfo struct {
	Tilt *timeline.Map[Pulse, graph.TiltValue]
	Cam  CamInfo
}

type LegacyBGFile struct {
	Filename string
}

type LayerRotation struct {
	Tilt bool
	Spin bool
}

type LegacyLayer struct {
	Filename string
	Duration int32
	Rotation LayerRotation
}

type LegacyMovie struct {
	Filename string
	Offset   int32
}

type LegacyBGInfo struct {
	BG    [2]LegacyBGFile
	Layer LegacyLayer
	Movie LegacyMovie
}

type BGInfo struct {
	Filename string
	Legacy   LegacyBGInfo
}

type EditorInfo struct {
	AppName    string
	AppVersion string
	Comment    *timeline.Map[Pulse, string]
}

// KSHUnknown keeps KSH data that has no KSON equivalent.
type KSHUnknown struct {
	Meta   map[string]string
	Option map[string][]PulseString
	Line   []PulseString
}

type PulseString struct {
	Y Pulse
	V string
}

type CompatInfo struct {
	KSHVersion string
	KSHUnknown KSHUnknown
}
