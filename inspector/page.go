package inspector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/pipeline"
	"github.com/jsphweid/notewindow/store"
	"github.com/pkg/errors"
)

const yearPlaceholder = "-"

type pageLink struct {
	Label  string
	Href   string
	Active bool
}

type pageData struct {
	State    State
	Splits   []pageLink
	Total    int
	MaxIndex int
	Prev     string
	Next     string
	Path     string
	Manifest *pipeline.Report

	// at most one of these is set
	Missing string
	Error   string

	Record   *model.Record
	Composer string
	Title    string
	Year     string
	Roll     SVG
	RawJSON  string
}

// HandlePage renders one pass of the browser UI for the state in the query
// string. Whatever goes wrong is shown on the page.
func (s *Server) HandlePage(w http.ResponseWriter, r *http.Request) {
	defaultSplit := ""
	if len(s.Splits) > 0 {
		defaultSplit = s.Splits[0]
	}
	state := ParseState(r.URL.Query(), s.Splits, defaultSplit)

	data, err := s.render(state)
	if err != nil {
		log.Inspect.Warnf("Render of %v failed: %v", state.Query(), err)
		data.Error = err.Error()
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (s *Server) render(state State) (data pageData, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("%v", rec)
		}
	}()

	data.State = state
	data.Manifest = s.Manifest
	data.Path = store.Path(s.Dir, state.Split)
	for _, split := range s.Splits {
		data.Splits = append(data.Splits, pageLink{
			Label:  split,
			Href:   State{Split: split}.Query(),
			Active: split == state.Split,
		})
	}
	if state.Split == "" {
		return data, errors.New("no splits configured")
	}

	var raw []byte
	var rec model.Record
	var found bool
	err = s.readers.with(state.Split, func(rd *store.Reader) error {
		data.Total = rd.Count()
		state = state.Clamp(data.Total)
		var err error
		raw, found, err = rd.Raw(state.Index)
		if err != nil || !found {
			return err
		}
		return json.Unmarshal(raw, &rec)
	})
	data.State = state
	if errors.Is(err, store.ErrNoRecords) {
		data.Missing = missingMessage(state.Split, data.Path)
		return data, nil
	}
	if err != nil {
		return data, err
	}

	data.MaxIndex = data.Total - 1
	data.Prev = state.Prev().Clamp(data.Total).Query()
	data.Next = state.Next().Clamp(data.Total).Query()
	if !found {
		return data, nil
	}

	data.Record = &rec
	data.Composer, data.Title, data.Year = metrics(raw)
	data.Roll = NewPianoRoll(rec).SVG()

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err == nil {
		data.RawJSON = pretty.String()
	}
	return data, nil
}

// metrics reads the summary fields straight from the stored metadata so
// keys a newer generator adds (year) show up without a schema change.
func metrics(raw []byte) (composer, title, year string) {
	composer, title, year = "Unknown", "Unknown", yearPlaceholder
	var rec struct {
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return
	}
	if v, ok := rec.Metadata["composer"]; ok && v != nil {
		composer = fmt.Sprint(v)
	}
	if v, ok := rec.Metadata["title"]; ok && v != nil {
		title = fmt.Sprint(v)
	}
	if v, ok := rec.Metadata["year"]; ok && v != nil {
		year = fmt.Sprint(v)
	}
	return
}

// pianoRollTemplate renders an SVG value on its own, for the page and for
// the pianoroll route.
var pianoRollTemplate = template.Must(template.New("pianoroll").Parse(`<svg width="{{.Width}}" height="{{.Height}}" xmlns="http://www.w3.org/2000/svg">
{{range .Rects}}<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}" fill="{{.Fill}}"><title>{{.Title}}</title></rect>
{{end}}{{range .TimeTicks}}<text x="{{.Pos}}" y="{{$.Height}}" font-size="11" text-anchor="middle">{{.Label}}</text>
{{end}}{{range .PitchTicks}}<text x="4" y="{{.Pos}}" font-size="11">{{.Label}}</text>
{{end}}{{if not .Rects}}<text x="16" y="24" font-size="14">No notes to display.</text>
{{end}}</svg>
`))

var pageTemplate = template.Must(template.Must(pianoRollTemplate.Clone()).New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Music LLM Dataset Explorer</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; }
nav { width: 240px; padding: 16px; background: #f3f3f3; min-height: 100vh; }
main { flex: 1; padding: 16px 24px; }
nav a.active { font-weight: bold; }
.metrics { display: flex; gap: 48px; }
.metric span { display: block; color: #666; font-size: 12px; }
.metric strong { font-size: 24px; }
.error { color: #a00; background: #fee; padding: 8px; }
.warning { color: #850; background: #ffd; padding: 8px; }
</style>
</head>
<body>
<nav>
<h3>Configuration</h3>
<p>Split:</p>
<ul>
{{range .Splits}}<li><a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a></li>
{{end}}</ul>
<p>File: <code>{{.Path}}</code></p>
{{if not .Missing}}<p>Records: <strong>{{.Total}}</strong></p>
{{if .Total}}
<p><a href="{{.Prev}}">&#9664; Prev</a> &nbsp; <a href="{{.Next}}">Next &#9654;</a></p>
<form method="get" action="/">
<input type="hidden" name="split" value="{{.State.Split}}">
<label>Go to index: <input type="number" name="index" min="0" max="{{.MaxIndex}}" value="{{.State.Index}}"></label>
<button type="submit">Go</button>
</form>
{{end}}{{end}}
{{with .Manifest}}<p>Run <code>{{.RunID}}</code><br>window {{.Window.WindowSize}}, predict {{.Window.PredictSize}}, stride {{.Window.Stride}}</p>{{end}}
</nav>
<main>
<h1>Music LLM Dataset Explorer</h1>
{{if .Error}}<p class="error">Error: {{.Error}}</p>{{end}}
{{if .Missing}}<p class="error">{{.Missing}}</p>{{end}}
{{if .Record}}
<h2>Chunk #{{.State.Index}}</h2>
<div class="metrics">
<div class="metric"><span>Composer</span><strong>{{.Composer}}</strong></div>
<div class="metric"><span>Title</span><strong>{{.Title}}</strong></div>
<div class="metric"><span>Year</span><strong>{{.Year}}</strong></div>
</div>
<hr>
{{with .Roll}}{{if .Rects}}
{{template "pianoroll" .}}
<p>{{range .Legend}}<svg width="12" height="12"><rect width="12" height="12" fill="{{.Color}}"/></svg> {{.Kind}} &nbsp; {{end}}</p>
{{else}}<p class="warning">No notes to display.</p>{{end}}{{end}}
<p><a href="/api/splits/{{.State.Split}}/records/{{.State.Index}}/midi">Download as MIDI</a></p>
<details><summary>Raw JSON</summary><pre>{{.RawJSON}}</pre></details>
{{end}}
</main>
</body>
</html>
`))
