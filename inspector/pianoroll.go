package inspector

import (
	"fmt"

	"github.com/jsphweid/notewindow/model"
)

const (
	KindContext = "Input (Context)"
	KindTarget  = "Target (Prediction)"

	ColorContext = "#1f77b4"
	ColorTarget  = "#d62728"

	// pitch axis padding, in semitones, on both ends
	pitchPadding = 2
)

type Bar struct {
	Kind     string  `json:"type"`
	Color    string  `json:"color"`
	Pitch    int     `json:"pitch"`
	Velocity float64 `json:"velocity"`
	Start    float64 `json:"start"`
	// StartNorm and EndNorm are seconds since the window's first onset.
	StartNorm float64 `json:"start_norm"`
	EndNorm   float64 `json:"end_norm"`
}

type PianoRoll struct {
	Bars     []Bar   `json:"bars"`
	MinPitch int     `json:"min_pitch"`
	MaxPitch int     `json:"max_pitch"`
	Duration float64 `json:"duration"`
}

func (p PianoRoll) Empty() bool {
	return len(p.Bars) == 0
}

// NewPianoRoll lays both halves of rec on one time axis starting at zero.
func NewPianoRoll(rec model.Record) PianoRoll {
	var roll PianoRoll
	all := rec.Notes()
	if len(all) == 0 {
		return roll
	}

	origin := all[0].Start
	minPitch, maxPitch := all[0].Pitch, all[0].Pitch
	for _, n := range all[1:] {
		if n.Start < origin {
			origin = n.Start
		}
		if n.Pitch < minPitch {
			minPitch = n.Pitch
		}
		if n.Pitch > maxPitch {
			maxPitch = n.Pitch
		}
	}
	roll.MinPitch = minPitch - pitchPadding
	roll.MaxPitch = maxPitch + pitchPadding

	add := func(notes []model.Note, kind, color string) {
		for _, n := range notes {
			b := Bar{
				Kind:      kind,
				Color:     color,
				Pitch:     n.Pitch,
				Velocity:  n.Velocity,
				Start:     n.Start,
				StartNorm: n.Start - origin,
				EndNorm:   n.End - origin,
			}
			if b.EndNorm > roll.Duration {
				roll.Duration = b.EndNorm
			}
			roll.Bars = append(roll.Bars, b)
		}
	}
	add(rec.NotesFirst, KindContext, ColorContext)
	add(rec.NotesSecond, KindTarget, ColorTarget)
	return roll
}

const (
	svgWidth   = 960.0
	svgHeight  = 400.0
	svgMarginX = 48.0
	svgMarginY = 24.0
)

type svgRect struct {
	X, Y, W, H float64
	Fill       string
	Title      string
}

type svgTick struct {
	Pos   float64
	Label string
}

// SVG is the piano roll scaled to a fixed canvas, ready for the page
// template.
type SVG struct {
	Width, Height float64
	Rects         []svgRect
	TimeTicks     []svgTick
	PitchTicks    []svgTick
	Legend        []Bar
}

func (p PianoRoll) SVG() SVG {
	out := SVG{Width: svgWidth, Height: svgHeight}
	if p.Empty() {
		return out
	}

	plotW := svgWidth - 2*svgMarginX
	plotH := svgHeight - 2*svgMarginY
	duration := p.Duration
	if duration <= 0 {
		duration = 1
	}
	pitchSpan := float64(p.MaxPitch - p.MinPitch + 1)
	rowH := plotH / pitchSpan

	x := func(t float64) float64 { return svgMarginX + t/duration*plotW }
	y := func(pitch int) float64 { return svgMarginY + float64(p.MaxPitch-pitch)*rowH }

	for _, b := range p.Bars {
		w := x(b.EndNorm) - x(b.StartNorm)
		if w < 1 {
			w = 1
		}
		out.Rects = append(out.Rects, svgRect{
			X:     x(b.StartNorm),
			Y:     y(b.Pitch),
			W:     w,
			H:     rowH,
			Fill:  b.Color,
			Title: fmt.Sprintf("%v pitch=%v velocity=%v start=%.3f", b.Kind, b.Pitch, b.Velocity, b.Start),
		})
	}

	for i := 0; i <= 4; i++ {
		t := duration * float64(i) / 4
		out.TimeTicks = append(out.TimeTicks, svgTick{Pos: x(t), Label: fmt.Sprintf("%.1fs", t)})
	}
	for pitch := p.MinPitch; pitch <= p.MaxPitch; pitch++ {
		if pitch%12 == 0 {
			out.PitchTicks = append(out.PitchTicks, svgTick{Pos: y(pitch) + rowH/2, Label: fmt.Sprint(pitch)})
		}
	}
	out.Legend = []Bar{
		{Kind: KindContext, Color: ColorContext},
		{Kind: KindTarget, Color: ColorTarget},
	}
	return out
}
