package ksonio

import (
	"github.com/cbegin/kson-go/internal/chart"
	"github.com/cbegin/kson-go/internal/effects"
	"github.com/cbegin/kson-go/internal/graph"
	"github.com/cbegin/kson-go/internal/timeline"
)

// namedDifficultyIdx is the slot used for difficulties given by name.
const namedDifficultyIdx = 3

func (r *reader) meta(obj map[string]any) chart.MetaInfo {
	m := chart.MetaInfo{
		Title:             r.stringOr(obj, "title", ""),
		TitleTranslit:     r.stringOr(obj, "title_translit", ""),
		TitleImgFilename:  r.stringOr(obj, "title_img_filename", ""),
		Artist:            r.stringOr(obj, "artist", ""),
		ArtistTranslit:    r.stringOr(obj, "artist_translit", ""),
		ArtistImgFilename: r.stringOr(obj, "artist_img_filename", ""),
		ChartAuthor:       r.stringOr(obj, "chart_author", ""),
		Level:             r.int32Or(obj, "level", 1),
		DispBPM:           r.stringOr(obj, "disp_bpm", ""),
		StdBPM:            r.floatOr(obj, "std_bpm", 0),
		JacketFilename:    r.stringOr(obj, "jacket_filename", ""),
		JacketAuthor:      r.stringOr(obj, "jacket_author", ""),
		IconFilename:      r.stringOr(obj, "icon_filename", ""),
		Information:       r.stringOr(obj, "information", ""),
	}
	switch d := obj["difficulty"].(type) {
	case nil:
	case string:
		m.Difficulty = chart.DifficultyInfo{Idx: namedDifficultyIdx, Name: d}
	default:
		if i, ok := asStrictInt(d); ok {
			m.Difficulty.Idx = int32(i)
		} else {
			r.warnf("Invalid difficulty format")
		}
	}
	return m
}

func (r *reader) beat(obj map[string]any) chart.BeatInfo {
	b := chart.BeatInfo{
		BPM:     byPulse(r, obj["bpm"], asFloat),
		TimeSig: timeline.New[chart.MeasureIdx, chart.TimeSig](),
		Stop:    byPulse(r, obj["stop"], asRelPulse),
	}

	sigs, _ := asArray(obj["time_sig"])
	for _, item := range sigs {
		pair, ok := asArray(item)
		if !ok || len(pair) < 2 {
			r.warnf("Invalid ByMeasureIdx entry format")
			continue
		}
		idx, ok := asInt(pair[0])
		sig, sigOK := asArray(pair[1])
		if !ok || !sigOK || len(sig) < 2 {
			r.warnf("Invalid time signature format")
			continue
		}
		n, nOK := asInt(sig[0])
		d, dOK := asInt(sig[1])
		if !nOK || !dOK || n <= 0 || d <= 0 {
			r.warnf("Invalid time signature at measure %d", idx)
			continue
		}
		b.TimeSig.Set(chart.MeasureIdx(idx), chart.TimeSig{N: int32(n), D: int32(d)})
	}

	if v, ok := obj["scroll_speed"]; ok && v != nil {
		b.ScrollSpeed = r.readGraph(v)
	} else {
		b.ScrollSpeed = timeline.FromEntries(timeline.Entry[chart.Pulse, graph.GraphPoint]{Key: 0, Value: graph.Point(1)})
	}
	return b
}

func (r *reader) gauge(obj map[string]any) chart.GaugeInfo {
	total := r.int32Or(obj, "total", 0)
	if total < 0 {
		r.warnf("Invalid gauge total %d", total)
		total = 0
	}
	return chart.GaugeInfo{Total: uint32(total)}
}

// graphValue reads v or [v, vf].
func (r *reader) graphValue(v any) graph.GraphValue {
	if f, ok := asFloat(v); ok {
		return graph.Value(f)
	}
	if arr, ok := asArray(v); ok && len(arr) >= 2 {
		gv, gvOK := asFloat(arr[0])
		vf, vfOK := asFloat(arr[1])
		if gvOK && vfOK {
			return graph.GraphValue{V: gv, VF: vf}
		}
	}
	r.warnf("Invalid graph value format")
	return graph.Value(0)
}

// curve reads [a, b]; anything else is linear.
func curve(v any) graph.GraphCurveValue {
	arr, ok := asArray(v)
	if !ok || len(arr) < 2 {
		return graph.GraphCurveValue{}
	}
	a, aOK := asFloat(arr[0])
	b, bOK := asFloat(arr[1])
	if !aOK || !bOK {
		return graph.GraphCurveValue{}
	}
	return graph.GraphCurveValue{A: a, B: b}
}

// graphPoint reads item[1] as the value and the optional item[2] as the curve.
func (r *reader) graphPoint(item []any) graph.GraphPoint {
	p := graph.GraphPoint{V: r.graphValue(item[1])}
	if len(item) >= 3 {
		p.Curve = curve(item[2])
	}
	return p
}

// readGraph reads [[y, v | [v, vf], [a, b]?], ...].
func (r *reader) readGraph(v any) *graph.Graph {
	out := timeline.New[chart.Pulse, graph.GraphPoint]()
	arr, _ := asArray(v)
	for _, item := range arr {
		entry, ok := asArray(item)
		if !ok || len(entry) < 2 {
			r.warnf("Invalid graph entry format")
			continue
		}
		y, ok := asPulse(entry[0])
		if !ok {
			r.warnf("Invalid graph entry format")
			continue
		}
		out.Set(y, r.graphPoint(entry))
	}
	return out
}

// lane reads BT/FX notes: [y, length] or a bare y for a chip.
func (r *reader) lane(v any) *chart.Lane {
	out := timeline.New[chart.Pulse, chart.Interval]()
	arr, _ := asArray(v)
	for _, item := range arr {
		if y, ok := asStrictInt(item); ok {
			out.Set(chart.Pulse(y), chart.Interval{})
			continue
		}
		pair, ok := asArray(item)
		if ok && len(pair) >= 2 {
			y, yOK := asPulse(pair[0])
			l, lOK := asRelPulse(pair[1])
			if yOK && lOK && l >= 0 {
				out.Set(y, chart.Interval{Length: l})
				continue
			}
		}
		r.warnf("Invalid note entry format")
	}
	return out
}

// laserLane reads [[y, [[ry, v, [a, b]?], ...], w?], ...].
func (r *reader) laserLane(v any) *chart.LaserLane {
	out := timeline.New[chart.Pulse, graph.LaserSection]()
	arr, _ := asArray(v)
	for _, item := range arr {
		entry, ok := asArray(item)
		if !ok || len(entry) < 2 {
			r.warnf("Invalid laser section format")
			continue
		}
		y, ok := asPulse(entry[0])
		if !ok {
			r.warnf("Invalid laser section format")
			continue
		}
		section := graph.LaserSection{
			V: timeline.New[chart.RelPulse, graph.GraphPoint](),
			W: graph.LaserXScale1x,
		}
		points, _ := asArray(entry[1])
		for _, p := range points {
			pt, ok := asArray(p)
			if !ok || len(pt) < 2 {
				r.warnf("Invalid laser point format")
				continue
			}
			ry, ok := asRelPulse(pt[0])
			if !ok {
				r.warnf("Invalid laser point format")
				continue
			}
			section.V.Set(ry, r.graphPoint(pt))
		}
		if len(entry) >= 3 {
			w, ok := asInt(entry[2])
			if ok && (w == int64(graph.LaserXScale1x) || w == int64(graph.LaserXScale2x)) {
				section.W = int32(w)
			} else {
				r.warnf("Invalid laser width at pulse %d", y)
			}
		}
		out.Set(y, section)
	}
	return out
}

func (r *reader) note(obj map[string]any) chart.NoteInfo {
	var n chart.NoteInfo
	bt, _ := asArray(obj["bt"])
	fx, _ := asArray(obj["fx"])
	laser, _ := asArray(obj["laser"])
	for i := range n.BT {
		var v any
		if i < len(bt) {
			v = bt[i]
		}
		n.BT[i] = r.lane(v)
	}
	for i := range n.FX {
		var v any
		if i < len(fx) {
			v = fx[i]
		}
		n.FX[i] = r.lane(v)
	}
	for i := range n.Laser {
		var v any
		if i < len(laser) {
			v = laser[i]
		}
		n.Laser[i] = r.laserLane(v)
	}
	return n
}

func (r *reader) preview(obj map[string]any) chart.BGMPreviewInfo {
	return chart.BGMPreviewInfo{
		Offset:   r.int32Or(obj, "offset", 0),
		Duration: r.int32Or(obj, "duration", chart.DefaultPreviewDuration),
	}
}

func (r *reader) bgm(obj map[string]any) chart.BGMInfo {
	preview, _ := asObject(obj["preview"])
	b := chart.BGMInfo{
		Filename: r.stringOr(obj, "filename", ""),
		Vol:      r.floatOr(obj, "vol", 1),
		Offset:   r.int32Or(obj, "offset", 0),
		Preview:  r.preview(preview),
	}
	if legacy, ok := asObject(obj["legacy"]); ok {
		files, _ := asArray(legacy["fp_filenames"])
		names := []*string{&b.Legacy.FilenameF, &b.Legacy.FilenameP, &b.Legacy.FilenameFP}
		for i, dst := range names {
			if i < len(files) {
				*dst, _ = asString(files[i])
			}
		}
	}
	return b
}

func (r *reader) metaBGM(audio map[string]any) chart.MetaBGMInfo {
	obj, _ := asObject(audio["bgm"])
	preview, _ := asObject(obj["preview"])
	return chart.MetaBGMInfo{
		Filename: r.stringOr(obj, "filename", ""),
		Vol:      r.floatOr(obj, "vol", 1),
		Preview:  r.preview(preview),
	}
}

func (r *reader) effectDefs(v any) []effects.DefKVP {
	var out []effects.DefKVP
	arr, _ := asArray(v)
	for _, item := range arr {
		pair, ok := asArray(item)
		if !ok || len(pair) < 2 {
			r.warnf("Invalid audio effect definition format")
			continue
		}
		name, ok := asString(pair[0])
		obj, objOK := asObject(pair[1])
		if !ok || !objOK {
			r.warnf("Invalid audio effect definition format")
			continue
		}
		typ, _ := asString(obj["type"])
		out = append(out, effects.DefKVP{
			Name: name,
			V:    effects.Def{Type: effects.ParseType(typ), V: stringParams(obj["v"])},
		})
	}
	return out
}

func (r *reader) paramChanges(v any) effects.ParamChanges {
	out := effects.ParamChanges{}
	obj, _ := asObject(v)
	for _, name := range sortedKeys(obj) {
		params := obj[name]
		pobj, ok := asObject(params)
		if !ok {
			continue
		}
		byParam := map[string]*timeline.Map[chart.Pulse, string]{}
		for _, param := range sortedKeys(pobj) {
			values := pobj[param]
			if _, ok := asArray(values); ok {
				byParam[param] = byPulse(r, values, asString)
			}
		}
		out[name] = byParam
	}
	return out
}

func (r *reader) audioEffect(obj map[string]any) effects.Info {
	fx, _ := asObject(obj["fx"])
	laser, _ := asObject(obj["laser"])

	info := effects.Info{
		FX: effects.FXInfo{
			Def:         r.effectDefs(fx["def"]),
			ParamChange: r.paramChanges(fx["param_change"]),
			LongEvent:   map[string][chart.NumFXLanes]*timeline.Map[chart.Pulse, effects.Params]{},
		},
		Laser: effects.LaserInfo{
			Def:                r.effectDefs(laser["def"]),
			ParamChange:        r.paramChanges(laser["param_change"]),
			PulseEvent:         map[string]*timeline.Map[chart.Pulse, struct{}]{},
			PeakingFilterDelay: r.int32Or(laser, "peaking_filter_delay", 0),
		},
	}
	if d := info.Laser.PeakingFilterDelay; d < 0 || d > 160 {
		r.warnf("peaking_filter_delay %d out of range 0-160", d)
		info.Laser.PeakingFilterDelay = min(max(d, 0), 160)
	}

	longEvents, _ := asObject(fx["long_event"])
	for _, name := range sortedKeys(longEvents) {
		v := longEvents[name]
		lanes, ok := asArray(v)
		if !ok {
			continue
		}
		var perLane [chart.NumFXLanes]*timeline.Map[chart.Pulse, effects.Params]
		for i := range perLane {
			perLane[i] = timeline.New[chart.Pulse, effects.Params]()
			if i >= len(lanes) {
				continue
			}
			events, _ := asArray(lanes[i])
			for _, ev := range events {
				if y, ok := asStrictInt(ev); ok {
					perLane[i].Set(chart.Pulse(y), effects.Params{})
					continue
				}
				pair, ok := asArray(ev)
				if !ok || len(pair) < 2 {
					continue
				}
				if y, ok := asPulse(pair[0]); ok {
					perLane[i].Set(y, stringParams(pair[1]))
				}
			}
		}
		info.FX.LongEvent[name] = perLane
	}

	pulseEvents, _ := asObject(laser["pulse_event"])
	for _, name := range sortedKeys(pulseEvents) {
		v := pulseEvents[name]
		if _, ok := asArray(v); ok {
			info.Laser.PulseEvent[name] = pulseSet(v)
		}
	}

	legacy, _ := asObject(laser["legacy"])
	info.Laser.LegacyFilterGain = byPulse(r, legacy["filter_gain"], asFloat)
	return info
}

func (r *reader) keySound(obj map[string]any) chart.KeySoundInfo {
	fx, _ := asObject(obj["fx"])
	laser, _ := asObject(obj["laser"])

	ks := chart.KeySoundInfo{
		FX: chart.KeySoundFXInfo{ChipEvent: map[string][chart.NumFXLanes]*timeline.Map[chart.Pulse, chart.KeySoundInvokeFX]{}},
		Laser: chart.KeySoundLaserInfo{
			Vol:       byPulse(r, laser["vol"], asFloat),
			SlamEvent: map[string]*timeline.Map[chart.Pulse, struct{}]{},
		},
	}

	chips, _ := asObject(fx["chip_event"])
	for _, name := range sortedKeys(chips) {
		v := chips[name]
		lanes, ok := asArray(v)
		if !ok {
			continue
		}
		var perLane [chart.NumFXLanes]*timeline.Map[chart.Pulse, chart.KeySoundInvokeFX]
		for i := range perLane {
			perLane[i] = timeline.New[chart.Pulse, chart.KeySoundInvokeFX]()
			if i >= len(lanes) {
				continue
			}
			events, _ := asArray(lanes[i])
			for _, ev := range events {
				if y, ok := asStrictInt(ev); ok {
					perLane[i].Set(chart.Pulse(y), chart.KeySoundInvokeFX{Vol: 1})
					continue
				}
				pair, ok := asArray(ev)
				if !ok || len(pair) < 2 {
					continue
				}
				y, ok := asPulse(pair[0])
				if !ok {
					continue
				}
				opts, _ := asObject(pair[1])
				perLane[i].Set(y, chart.KeySoundInvokeFX{Vol: r.floatOr(opts, "vol", 1)})
			}
		}
		ks.FX.ChipEvent[name] = perLane
	}

	slams, _ := asObject(laser["slam_event"])
	for _, name := range sortedKeys(slams) {
		v := slams[name]
		if _, ok := asArray(v); ok {
			ks.Laser.SlamEvent[name] = pulseSet(v)
		}
	}
	if legacy, ok := asObject(laser["legacy"]); ok {
		ks.Laser.LegacyVolAuto = r.boolOr(legacy, "vol_auto", false)
	}
	return ks
}

func (r *reader) audio(obj map[string]any) chart.AudioInfo {
	bgm, _ := asObject(obj["bgm"])
	keySound, _ := asObject(obj["key_sound"])
	audioEffect, _ := asObject(obj["audio_effect"])
	return chart.AudioInfo{
		BGM:         r.bgm(bgm),
		KeySound:    r.keySound(keySound),
		AudioEffect: r.audioEffect(audioEffect),
	}
}

// tiltValue reads the value half of a camera.tilt entry.
func (r *reader) tiltValue(v any) (graph.TiltValue, bool) {
	if s, ok := asString(v); ok {
		return graph.AutoTilt(graph.ParseAutoTiltType(s)), true
	}
	if f, ok := asFloat(v); ok {
		return graph.ManualTilt(graph.TiltGraphPoint{V: graph.TiltValueOf(f)}), true
	}
	arr, ok := asArray(v)
	if !ok || len(arr) != 2 {
		return graph.TiltValue{}, false
	}

	// [[v, vf], [a, b]]
	if pair, ok := asArray(arr[0]); ok {
		if len(pair) < 2 {
			return graph.TiltValue{}, false
		}
		gv, gvOK := asFloat(pair[0])
		vf, vfOK := asFloat(pair[1])
		if !gvOK || !vfOK {
			return graph.TiltValue{}, false
		}
		return graph.ManualTilt(graph.TiltGraphPoint{
			V:     graph.TiltGraphValue{V: gv, VF: vf},
			Curve: curve(arr[1]),
		}), true
	}

	gv, ok := asFloat(arr[0])
	if !ok {
		return graph.TiltValue{}, false
	}
	switch second := arr[1].(type) {
	case []any: // [v, [a, b]]
		return graph.ManualTilt(graph.TiltGraphPoint{V: graph.TiltValueOf(gv), Curve: curve(second)}), true
	case string: // [v, "auto type"]
		return graph.ManualTilt(graph.TiltGraphPoint{V: graph.TiltGraphValue{
			V:          gv,
			VF:         gv,
			VFAuto:     true,
			VFAutoType: graph.ParseAutoTiltType(second),
		}}), true
	default: // [v, vf]
		vf, ok := asFloat(second)
		if !ok {
			return graph.TiltValue{}, false
		}
		return graph.ManualTilt(graph.TiltGraphPoint{V: graph.TiltGraphValue{V: gv, VF: vf}}), true
	}
}

func (r *reader) tilt(v any) *timeline.Map[chart.Pulse, graph.TiltValue] {
	out := timeline.New[chart.Pulse, graph.TiltValue]()
	arr, _ := asArray(v)
	for _, item := range arr {
		entry, ok := asArray(item)
		if !ok || len(entry) < 2 {
			r.warnf("Invalid tilt entry format")
			continue
		}
		y, ok := asPulse(entry[0])
		if !ok {
			r.warnf("Invalid tilt entry format")
			continue
		}
		tv, ok := r.tiltValue(entry[1])
		if !ok {
			r.warnf("Invalid tilt value at pulse %d", y)
			continue
		}
		out.Set(y, tv)
	}
	return out
}

func (r *reader) spins(v any) *timeline.Map[chart.Pulse, chart.CamPatternInvokeSpin] {
	out := timeline.New[chart.Pulse, chart.CamPatternInvokeSpin]()
	arr, _ := asArray(v)
	for _, item := range arr {
		entry, ok := asArray(item)
		if !ok || len(entry) < 3 {
			r.warnf("Invalid spin event format")
			continue
		}
		y, yOK := asPulse(entry[0])
		d, dOK := asInt(entry[1])
		l, lOK := asRelPulse(entry[2])
		if !yOK || !dOK || !lOK {
			r.warnf("Invalid spin event format")
			continue
		}
		out.Set(y, chart.CamPatternInvokeSpin{D: int32(d), Length: l})
	}
	return out
}

func (r *reader) swings(v any) *timeline.Map[chart.Pulse, chart.CamPatternInvokeSwing] {
	out := timeline.New[chart.Pulse, chart.CamPatternInvokeSwing]()
	arr, _ := asArray(v)
	for _, item := range arr {
		entry, ok := asArray(item)
		if !ok || len(entry) < 3 {
			r.warnf("Invalid swing event format")
			continue
		}
		y, yOK := asPulse(entry[0])
		d, dOK := asInt(entry[1])
		l, lOK := asRelPulse(entry[2])
		if !yOK || !dOK || !lOK {
			r.warnf("Invalid swing event format")
			continue
		}
		swing := chart.CamPatternInvokeSwing{D: int32(d), Length: l, V: chart.DefaultSwingValue()}
		if len(entry) >= 4 {
			if opts, ok := asObject(entry[3]); ok {
				swing.V.Scale = r.floatOr(opts, "scale", swing.V.Scale)
				swing.V.Repeat = r.int32Or(opts, "repeat", swing.V.Repeat)
				swing.V.DecayOrder = r.int32Or(opts, "decay_order", swing.V.DecayOrder)
			}
		}
		out.Set(y, swing)
	}
	return out
}

func (r *reader) camera(obj map[string]any) chart.CameraInfo {
	cam, _ := asObject(obj["cam"])
	body, _ := asObject(cam["body"])
	pattern, _ := asObject(cam["pattern"])
	laser, _ := asObject(pattern["laser"])
	slam, _ := asObject(laser["slam_event"])

	bodyGraph := func(key string) *graph.Graph { return r.readGraph(body[key]) }
	return chart.CameraInfo{
		Tilt: r.tilt(obj["tilt"]),
		Cam: chart.CamInfo{
			Body: chart.CamGraphs{
				ZoomBottom:  bodyGraph("zoom_bottom"),
				ZoomSide:    bodyGraph("zoom_side"),
				ZoomTop:     bodyGraph("zoom_top"),
				RotationDeg: bodyGraph("rotation_deg"),
				CenterSplit: bodyGraph("center_split"),
			},
			PatternLaser: chart.CamPatternLaserSlamEvent{
				Spin:     r.spins(slam["spin"]),
				HalfSpin: r.spins(slam["half_spin"]),
				Swing:    r.swings(slam["swing"]),
			},
		},
	}
}

func (r *reader) bg(obj map[string]any) chart.BGInfo {
	b := chart.BGInfo{Filename: r.stringOr(obj, "filename", "")}
	b.Legacy.Layer.Rotation = chart.LayerRotation{Tilt: true, Spin: true}

	legacy, _ := asObject(obj["legacy"])
	bgs, _ := asArray(legacy["bg"])
	for i := range b.Legacy.BG {
		if i < len(bgs) {
			file, _ := asObject(bgs[i])
			b.Legacy.BG[i].Filename = r.stringOr(file, "filename", "")
		}
	}
	if layer, ok := asObject(legacy["layer"]); ok {
		b.Legacy.Layer.Filename = r.stringOr(layer, "filename", "")
		b.Legacy.Layer.Duration = r.int32Or(layer, "duration", 0)
		if rot, ok := asObject(layer["rotation"]); ok {
			b.Legacy.Layer.Rotation.Tilt = r.boolOr(rot, "tilt", true)
			b.Legacy.Layer.Rotation.Spin = r.boolOr(rot, "spin", true)
		}
	}
	if movie, ok := asObject(legacy["movie"]); ok {
		b.Legacy.Movie.Filename = r.stringOr(movie, "filename", "")
		b.Legacy.Movie.Offset = r.int32Or(movie, "offset", 0)
	}
	return b
}

func (r *reader) editor(obj map[string]any) chart.EditorInfo {
	return chart.EditorInfo{
		AppName:    r.stringOr(obj, "app_name", ""),
		AppVersion: r.stringOr(obj, "app_version", ""),
		Comment:    byPulse(r, obj["comment"], asString),
	}
}

func pulseStrings(v any) []chart.PulseString {
	var out []chart.PulseString
	arr, _ := asArray(v)
	for _, item := range arr {
		pair, ok := asArray(item)
		if !ok || len(pair) < 2 {
			continue
		}
		y, yOK := asPulse(pair[0])
		s, sOK := asString(pair[1])
		if yOK && sOK {
			out = append(out, chart.PulseString{Y: y, V: s})
		}
	}
	return out
}

func (r *reader) compat(obj map[string]any) chart.CompatInfo {
	c := chart.CompatInfo{
		KSHVersion: r.stringOr(obj, "ksh_version", ""),
	}
	unknown, _ := asObject(obj["ksh_unknown"])
	c.KSHUnknown.Meta = stringParams(unknown["meta"])
	c.KSHUnknown.Option = map[string][]chart.PulseString{}
	options, _ := asObject(unknown["option"])
	for _, key := range sortedKeys(options) {
		v := options[key]
		c.KSHUnknown.Option[key] = pulseStrings(v)
	}
	c.KSHUnknown.Line = pulseStrings(unknown["line"])
	return c
}
