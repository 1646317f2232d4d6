package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"phonebook/logger"
	"phonebook/models"
)

// writeAnswer sets the ANSWER and TIME headers and finishes the
// response with 200 OK.
func writeAnswer(w http.ResponseWriter, answer string, elapsed time.Duration) {
	w.Header().Set("ANSWER", answer)
	w.Header().Set("TIME", elapsed.String())
	w.WriteHeader(http.StatusOK)
}

// writeError sets the ERROR header to the failure's Kind and a status
// code appropriate to it, per §7's error taxonomy.
func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	w.Header().Set("ERROR", string(kind)+": "+err.Error())
	logger.Warn("request failed: %v", err)

	switch kind {
	case models.KindThreadLimit:
		w.WriteHeader(http.StatusServiceUnavailable)
	case models.KindTimeout:
		w.WriteHeader(http.StatusGatewayTimeout)
	case models.KindBadKey, models.KindBadArg, models.KindFileParse:
		w.WriteHeader(http.StatusBadRequest)
	case models.KindSequence:
		w.WriteHeader(http.StatusConflict)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func formInt(r *http.Request, key string, def int) int {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func formBool(r *http.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true"
}

func (s *Server) waitTime(r *http.Request) time.Duration {
	ms := formInt(r, "wait_time_ms", 0)
	if ms <= 0 {
		return s.defaultWaitTime
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *Server) handleHi(w http.ResponseWriter, r *http.Request) {
	writeAnswer(w, "hi", 0)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, models.NewError(models.KindBadArg, "malformed form: %v", err))
		return
	}
	total := formInt(r, "count", 0)
	numThreads := formInt(r, "num_threads", 1)

	release, err := s.budget.Reserve(numThreads)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	if s.corpus == nil {
		writeError(w, models.NewError(models.KindBadCorpus, "name corpus failed to load at startup"))
		return
	}

	start := time.Now()
	created, err := s.db.Generate(s.corpus, total, numThreads, s.waitTime(r))
	elapsed := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAnswer(w, fmt.Sprintf("generated %d records", created), elapsed)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, models.NewError(models.KindBadArg, "malformed form: %v", err))
		return
	}
	fileName := r.FormValue("file_name")
	numThreads := formInt(r, "num_threads", 1)

	release, err := s.budget.Reserve(numThreads)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	start := time.Now()
	count, err := s.db.Save(numThreads, fileName, s.dataDir, s.waitTime(r))
	elapsed := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAnswer(w, fmt.Sprintf("saved %d records", count), elapsed)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, models.NewError(models.KindBadArg, "malformed form: %v", err))
		return
	}
	fileName := r.FormValue("file_name")
	numThreads := formInt(r, "num_threads", 1)

	release, err := s.budget.Reserve(numThreads)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	start := time.Now()
	count, err := s.db.Load(numThreads, fileName, s.dataDir, s.waitTime(r))
	elapsed := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAnswer(w, fmt.Sprintf("loaded %d records", count), elapsed)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, models.NewError(models.KindBadArg, "malformed form: %v", err))
		return
	}
	numThreads := formInt(r, "num_threads", 1)

	release, err := s.budget.Reserve(numThreads)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	start := time.Now()
	err = s.db.Clear(numThreads, s.waitTime(r))
	elapsed := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAnswer(w, "cleared", elapsed)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, models.NewError(models.KindBadArg, "malformed form: %v", err))
		return
	}
	number := r.FormValue("number")
	activity := formBool(r, "activity", true)
	rec := models.NewRecord(r.FormValue("last"), r.FormValue("first"), r.FormValue("patronymic"))

	release, err := s.budget.Reserve(1)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	start := time.Now()
	created, err := s.db.Insert(number, activity, rec, s.waitTime(r))
	elapsed := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}
	if created {
		writeAnswer(w, "created", elapsed)
	} else {
		writeAnswer(w, "replaced", elapsed)
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, models.NewError(models.KindBadArg, "malformed form: %v", err))
		return
	}
	number := r.FormValue("number")

	release, err := s.budget.Reserve(1)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	start := time.Now()
	removed, err := s.db.Erase(number, s.waitTime(r))
	elapsed := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}
	if removed {
		writeAnswer(w, "deleted", elapsed)
	} else {
		writeAnswer(w, "not found", elapsed)
	}
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, models.NewError(models.KindBadArg, "malformed form: %v", err))
		return
	}
	number := r.FormValue("number")

	release, err := s.budget.Reserve(1)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	start := time.Now()
	rec, activity, found, err := s.db.Find(number, s.waitTime(r))
	elapsed := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeAnswer(w, "not found", elapsed)
		return
	}
	w.Header().Set("ACTIVITY", strconv.FormatBool(activity))
	writeAnswer(w, rec.String(), elapsed)
}

// handlePrint streams one partition of the full scan. Parameters arrive
// as headers, per §6: ACTIVITY, TOTAL-WORKERS, WORKER-INDEX.
func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	activity := r.Header.Get("ACTIVITY") != "0"
	totalWorkers := headerInt(r, "TOTAL-WORKERS", 1)
	workerIndex := headerInt(r, "WORKER-INDEX", 0)

	release, err := s.budget.Reserve(1)
	if err != nil {
		writeError(w, err)
		return
	}
	defer release()

	flusher, canFlush := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	fw := &flushWriter{w: w, f: flusher, canFlush: canFlush}
	_, err = s.db.PrintPartition(fw, activity, totalWorkers, workerIndex, s.waitTime(r))
	if err != nil {
		// Headers are already sent for a streaming response; surface
		// the failure as a trailing line since an ERROR header would
		// be silently dropped after WriteHeader.
		fmt.Fprintf(w, "ERROR: %v\n", err)
	}
}

// flushWriter flushes after every write so a slow consumer sees entries
// as they are produced rather than buffered until the handler returns.
type flushWriter struct {
	w        http.ResponseWriter
	f        http.Flusher
	canFlush bool
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if err == nil && fw.canFlush {
		fw.f.Flush()
	}
	return n, err
}

func headerInt(r *http.Request, key string, def int) int {
	v := r.Header.Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	writeAnswer(w, "stopping", 0)
	s.RequestStop()
}
