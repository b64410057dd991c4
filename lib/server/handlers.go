package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/wavecrack/wavecrackd/coordstate"
	"github.com/wavecrack/wavecrackd/lib/attackstate"
	"github.com/wavecrack/wavecrackd/lib/capture"
	"github.com/wavecrack/wavecrackd/lib/engine"
	"github.com/wavecrack/wavecrackd/lib/wordlist"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()

	body := map[string]any{
		"status":          "ok",
		"version":         coordstate.Version,
		"tools_available": coordstate.State.GetToolsAvailable(),
		"interfaces":      coordstate.State.GetInterfaces(),
		"attack_running":  snap.Running,
		"gpu_offload": map[string]any{
			"enabled":    coordstate.State.GPUEnabled,
			"worker_url": coordstate.State.GPUWorkerURL,
			"processing": snap.GPUProcessing,
		},
	}

	if info, err := host.Info(); err == nil {
		body["hostname"] = info.Hostname
		body["uptime_seconds"] = info.Uptime
		body["platform"] = info.Platform
	}

	if avg, err := load.Avg(); err == nil {
		body["load_1m"] = avg.Load1
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		body["memory_used_percent"] = vm.UsedPercent
	}

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "pong")
}

// handleText serves the embedded display protocol. It stays open and
// unthrottled so a microcontroller on the local link can poll every second.
func (s *Server) handleText(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, s.state.Snapshot().TextLine())
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	nets, err := s.controller.Scan(r.Context())
	if err != nil {
		coordstate.ErrorLogger.Error("Scan failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Scan failed"})

		return
	}

	s.storeCache(nets)

	writeJSON(w, http.StatusOK, map[string]any{"networks": nets, "count": len(nets)})
}

func (s *Server) handleNetworkCount(w http.ResponseWriter, r *http.Request) {
	nets, err := s.cachedNetworks(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"count": 0, "error": "Scan failed"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"count": len(nets)})
}

// handleNetworkPage serves one page of the cached scan results as
// number|ssid|signal|encryption rows, three networks per page.
func (s *Server) handleNetworkPage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil {
		writeText(w, http.StatusBadRequest, "ERROR: Invalid page")

		return
	}

	nets, cacheErr := s.cachedNetworks(r.Context())
	if cacheErr != nil {
		writeText(w, http.StatusInternalServerError, "ERROR: Scan failed")

		return
	}

	totalPages := (len(nets) + networksPerPage - 1) / networksPerPage
	if page < 1 || page > totalPages {
		writeText(w, http.StatusBadRequest,
			fmt.Sprintf("ERROR: Page %d not found (1-%d)", page, totalPages))

		return
	}

	start := (page - 1) * networksPerPage
	end := min(start+networksPerPage, len(nets))

	rows := make([]string, 0, networksPerPage)
	for i := start; i < end; i++ {
		rows = append(rows, fmt.Sprintf("%d|%s|%d|%s",
			i+1, nets[i].SSID, nets[i].Signal, nets[i].Encryption))
	}

	writeText(w, http.StatusOK, strings.Join(rows, "\n"))
}

type startRequest struct {
	SSID string `json:"ssid"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})

		return
	}

	req.SSID = strings.TrimSpace(req.SSID)

	switch err := s.controller.Start(req.SSID); {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Attack started", "target": req.SSID})
	case errors.Is(err, attackstate.ErrAlreadyRunning):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Attack already running"})
	case errors.Is(err, engine.ErrInvalidTarget):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to start attack"})
	}
}

// handleAttackTarget starts an attack on a network by its number in the
// cached scan list. Responses are plain text for the embedded controller.
func (s *Server) handleAttackTarget(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil {
		writeText(w, http.StatusBadRequest, "ERROR: Invalid network number")

		return
	}

	s.cacheMu.Lock()
	nets := s.cached
	s.cacheMu.Unlock()

	if len(nets) == 0 {
		writeText(w, http.StatusBadRequest, "ERROR: No networks cached. Scan first.")

		return
	}

	if number < 1 || number > len(nets) {
		writeText(w, http.StatusBadRequest,
			fmt.Sprintf("ERROR: Network %d not found (1-%d)", number, len(nets)))

		return
	}

	ssid := nets[number-1].SSID

	switch startErr := s.controller.Start(ssid); {
	case startErr == nil:
		writeText(w, http.StatusOK, "STARTED|"+ssid)
	case errors.Is(startErr, attackstate.ErrAlreadyRunning):
		writeText(w, http.StatusConflict, "ERROR: Attack already running")
	default:
		writeText(w, http.StatusBadRequest, "ERROR: Failed to start attack")
	}
}

// handleStatus serves the full attack record. The body is a pure projection
// of the record, so repeated reads between two state transitions are
// byte-identical.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state.Snapshot())
}

func (s *Server) handleStatusSimple(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, s.state.Snapshot().SimpleLine())
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	if s.controller.Cancel() {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Attack cancelled"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "No attack running"})
}

func (s *Server) handleResults(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	if snap.Running {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "Attack in progress"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"target":    snap.TargetSSID,
		"result":    snap.Result,
		"completed": snap.Completed,
		"failed":    snap.Failed,
		"runtime":   snap.Runtime(s.now()),
	})
}

func (s *Server) handleResultsSimple(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, s.state.Snapshot().ResultsLine())
}

func (s *Server) handleFiles(w http.ResponseWriter, _ *http.Request) {
	files, err := s.captures.List()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list captures"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

// handleFileDelete removes one capture file. Any path components in the name
// are stripped, so deletes cannot escape the capture directory.
func (s *Server) handleFileDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := s.captures.Remove(name); err != nil {
		if errors.Is(err, capture.ErrNoCaptures) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No capture files found"})

			return
		}

		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete capture"})

		return
	}

	coordstate.Logger.Info("Capture deleted", "file", name)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Capture deleted", "file": name})
}

func (s *Server) handleWordlists(w http.ResponseWriter, _ *http.Request) {
	lists, err := wordlist.Discover(s.cfg.WordlistDir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to list wordlists"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"wordlists": lists, "count": len(lists)})
}

// handleConfig reports the effective configuration with the key redacted.
func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":        coordstate.Version,
		"scan_interface": coordstate.State.ScanIface,
		"mon_interface":  coordstate.State.MonIface,
		"capture_dir":    coordstate.State.CaptureDir,
		"wordlist_dir":   coordstate.State.WordlistDir,
		"rate_limit":     coordstate.State.RateLimit,
		"attack_timeout": coordstate.State.AttackTimeout.String(),
		"deauth_rounds":  coordstate.State.DeauthRounds,
		"deauth_count":   coordstate.State.DeauthCount,
		"gpu_enabled":    coordstate.State.GPUEnabled,
		"debug":          coordstate.State.Debug,
	})
}

func (s *Server) handleAnalyzeLatest(w http.ResponseWriter, _ *http.Request) {
	latest, err := s.captures.Latest()
	if err != nil {
		if errors.Is(err, capture.ErrNoCaptures) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "No capture files found"})

			return
		}

		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read captures"})

		return
	}

	report, err := s.captures.Analyze(latest.Name)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Analysis failed"})

		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	if s.hist == nil {
		writeJSON(w, http.StatusOK, map[string]any{"history": []struct{}{}, "count": 0})

		return
	}

	entries, err := s.hist.Recent(20)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read history"})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"history": entries, "count": len(entries)})
}

type crackResultRequest struct {
	Filename string `json:"filename"`
	Results  struct {
		Status           string   `json:"status"`
		CrackedPasswords []string `json:"cracked_passwords"`
	} `json:"results"`
}

// handleCrackResult ingests the GPU worker's outcome for a staged capture.
// It always answers 200 so the worker does not retry; "applied" reports
// whether an attack was waiting on the result.
func (s *Server) handleCrackResult(w http.ResponseWriter, r *http.Request) {
	var req crackResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})

		return
	}

	found := len(req.Results.CrackedPasswords) > 0 &&
		(req.Results.Status == "success" || req.Results.Status == "completed")

	password := ""
	if found {
		password = req.Results.CrackedPasswords[0]
	}

	applied := s.controller.IngestResult(req.Filename, password, found)

	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "applied": applied})
}

type gpuStatusRequest struct {
	Filename        string `json:"filename"`
	Phase           string `json:"phase"`
	Progress        int    `json:"progress"`
	CurrentWordlist string `json:"current_wordlist"`
}

func (s *Server) handleGPUStatus(w http.ResponseWriter, r *http.Request) {
	var req gpuStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})

		return
	}

	applied := s.controller.GPUStatus(req.Progress, req.CurrentWordlist)

	writeJSON(w, http.StatusOK, map[string]any{"status": "received", "applied": applied})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}
