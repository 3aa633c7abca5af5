// Package inspector serves a browser UI for paging through generated
// records, plus the JSON API it is built on.
package inspector

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/pipeline"
	"github.com/jsphweid/notewindow/sample"
	"github.com/jsphweid/notewindow/store"
	"github.com/pkg/errors"
	"github.com/rs/cors"
)

const DefaultIdleClose = time.Minute

type ErrorResponse struct {
	Error string `json:"detail"`
}

type SplitSummary struct {
	Split     string `json:"split"`
	Path      string `json:"path"`
	Available bool   `json:"available"`
	Records   int    `json:"records"`
}

type Server struct {
	Dir    string
	Splits []string
	// Manifest describes the run that produced Dir, when there is one.
	Manifest *pipeline.Report

	readers *readers
}

func NewServer(dir string, splits []string, idleClose time.Duration) *Server {
	return &Server{
		Dir:     dir,
		Splits:  splits,
		readers: newReaders(dir, idleClose),
	}
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(recovery)
	router.HandleFunc("/", s.HandlePage).Methods(http.MethodGet)
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/splits", s.HandleSplits).Methods(http.MethodGet)
	api.HandleFunc("/splits/{split}", s.HandleSplit).Methods(http.MethodGet)
	api.HandleFunc("/splits/{split}/records/{index:[0-9-]+}", s.HandleRecord).Methods(http.MethodGet)
	api.HandleFunc("/splits/{split}/records/{index:[0-9-]+}/pianoroll", s.HandlePianoRoll).Methods(http.MethodGet)
	api.HandleFunc("/splits/{split}/records/{index:[0-9-]+}/midi", s.HandleMidi).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}).Handler(router)
}

func (s *Server) ListenAndServe(addr string) error {
	log.Inspect.Printf("Inspector listening on %v, reading %v", addr, s.Dir)
	return http.ListenAndServe(addr, s.Router())
}

// recovery turns a panic in one request into an error response; the
// server keeps running.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Inspect.Errorf("Request %v panicked: %v", r.URL, rec)
				writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: fmt.Sprint(rec)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) knownSplit(split string) bool {
	return contains(s.Splits, split)
}

func missingMessage(split, path string) string {
	return fmt.Sprintf("No records for %v (%v). Run `notewindow generate` first.", split, path)
}

func (s *Server) summary(split string) (SplitSummary, error) {
	sum := SplitSummary{Split: split, Path: store.Path(s.Dir, split)}
	err := s.readers.with(split, func(rd *store.Reader) error {
		sum.Available = true
		sum.Records = rd.Count()
		return nil
	})
	if errors.Is(err, store.ErrNoRecords) {
		return sum, nil
	}
	return sum, err
}

func (s *Server) HandleSplits(w http.ResponseWriter, r *http.Request) {
	res := make([]SplitSummary, 0, len(s.Splits))
	for _, split := range s.Splits {
		sum, err := s.summary(split)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
			return
		}
		res = append(res, sum)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) HandleSplit(w http.ResponseWriter, r *http.Request) {
	split := mux.Vars(r)["split"]
	if !s.knownSplit(split) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown split " + split})
		return
	}
	sum, err := s.summary(split)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if !sum.Available {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: missingMessage(split, sum.Path)})
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// lookup resolves {split}/{index} for the record endpoints. It writes the
// error response itself and reports whether the caller should go on.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (model.Record, []byte, bool) {
	vars := mux.Vars(r)
	split := vars["split"]
	if !s.knownSplit(split) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown split " + split})
		return model.Record{}, nil, false
	}
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "index must be an integer"})
		return model.Record{}, nil, false
	}

	var rec model.Record
	var raw []byte
	var found bool
	err = s.readers.with(split, func(rd *store.Reader) error {
		var err error
		raw, found, err = rd.Raw(index)
		if err != nil || !found {
			return err
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return errors.Wrapf(err, "could not decode record %v", index)
		}
		return nil
	})

	switch {
	case errors.Is(err, store.ErrNoRecords):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: missingMessage(split, store.Path(s.Dir, split))})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	case !found:
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: fmt.Sprintf("no record %v in %v", index, split)})
	default:
		return rec, raw, true
	}
	return model.Record{}, nil, false
}

func (s *Server) HandleRecord(w http.ResponseWriter, r *http.Request) {
	_, raw, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (s *Server) HandlePianoRoll(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := pianoRollTemplate.Execute(&buf, NewPianoRoll(rec).SVG()); err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) HandleMidi(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	filename := fmt.Sprintf("%v-%v.mid", vars["split"], vars["index"])
	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := sample.Create(rec).WriteTo(w); err != nil {
		log.Inspect.Warnf("Could not write %v because: %v", filename, err)
	}
}
