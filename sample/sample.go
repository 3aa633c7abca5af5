// Package sample renders a record as a standard MIDI file so a window can be
// listened to. Context notes play on channel 0, target notes on channel 1.
package sample

import (
	"math"
	"sort"

	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/util"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	Resolution = 960
	// with no tempo change a file plays at 120 bpm: two quarters a second
	TicksPerSecond = Resolution * 2

	ContextChannel = 0
	TargetChannel  = 1
)

type timedMsg struct {
	ticks int64
	off   bool
	msg   midi.Message
}

func ticks(seconds float64) int64 {
	return int64(math.Round(seconds * TicksPerSecond))
}

func toByte(v float64, lo uint8) uint8 {
	return uint8(util.Clamp(math.Round(v), float64(lo), 127))
}

// Create lays out the record on one track with time shifted so the
// earliest note starts at zero.
func Create(rec model.Record) *smf.SMF {
	res := smf.New()
	res.TimeFormat = smf.MetricTicks(Resolution)

	all := rec.Notes()
	var origin float64
	for i, n := range all {
		if i == 0 || n.Start < origin {
			origin = n.Start
		}
	}

	var msgs []timedMsg
	add := func(notes []model.Note, channel uint8) {
		for _, n := range notes {
			key := toByte(float64(n.Pitch), 0)
			msgs = append(msgs,
				timedMsg{ticks: ticks(n.Start - origin), msg: midi.NoteOn(channel, key, toByte(n.Velocity, 1))},
				timedMsg{ticks: ticks(n.End - origin), off: true, msg: midi.NoteOff(channel, key)},
			)
		}
	}
	add(rec.NotesFirst, ContextChannel)
	add(rec.NotesSecond, TargetChannel)

	// note offs first so a repeated key doesn't cut its successor short
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].ticks != msgs[j].ticks {
			return msgs[i].ticks < msgs[j].ticks
		}
		return msgs[i].off && !msgs[j].off
	})

	var track smf.Track
	var last int64
	for _, m := range msgs {
		track.Add(uint32(m.ticks-last), m.msg)
		last = m.ticks
	}
	track.Close(0)
	res.Add(track)

	return res
}
