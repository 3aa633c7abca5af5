package inspector

import (
	"net/url"
	"strconv"

	"github.com/jsphweid/notewindow/util"
)

// State is everything one render pass needs to know about where the user is.
// It travels in the query string; the server keeps none of it.
type State struct {
	Split string
	Index int
}

// Clamp keeps Index inside [0, total-1], or at 0 when there is nothing.
func (s State) Clamp(total int) State {
	s.Index = util.Clamp(s.Index, 0, total-1)
	return s
}

func (s State) Prev() State {
	s.Index--
	return s
}

func (s State) Next() State {
	s.Index++
	return s
}

func (s State) GoTo(index int) State {
	s.Index = index
	return s
}

func (s State) Query() string {
	v := url.Values{}
	v.Set("split", s.Split)
	v.Set("index", strconv.Itoa(s.Index))
	return "?" + v.Encode()
}

// ParseState reads split and index from q. A missing or unknown split falls
// back to defaultSplit; an unreadable index to 0.
func ParseState(q url.Values, splits []string, defaultSplit string) State {
	s := State{Split: defaultSplit}
	if split := q.Get("split"); contains(splits, split) {
		s.Split = split
	}
	if idx, err := strconv.Atoi(q.Get("index")); err == nil {
		s.Index = idx
	}
	return s
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
