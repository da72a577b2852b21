/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the REST API.
    These functions decode JSON requests, call the game engine, and return
    JSON responses.

    Key Responsibilities:
    - Input Validation (Is the JSON valid? Are the required ids present?)
    - Dispatch to the engine. The engine serializes every mutation, so
      handlers hold no locks of their own.
    - Status mapping: a failed game action answers 409 with its
      {success:false, reason} body.
*/

package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/everforgeworks/gangwars/internal/game"
	"github.com/everforgeworks/gangwars/internal/save"
)

// Request DTOs (Data Transfer Objects)
// These structs define exactly what we expect the client to send us.

type StartMissionRequest struct {
	MissionID string   `json:"mission_id"`
	MemberIDs []string `json:"member_ids"`
}

type CompleteMissionRequest struct {
	ActiveMissionID string `json:"active_mission_id"`
}

type RecruitRequest struct {
	Class game.Class `json:"class"`
}

type MemberRequest struct {
	MemberID string `json:"member_id"`
	Stat     string `json:"stat,omitempty"`
}

type AmountRequest struct {
	Amount int `json:"amount"`
}

type GangNameRequest struct {
	Name string `json:"name"`
}

type TerritoryRequest struct {
	TerritoryID string           `json:"territory_id"`
	MemberIDs   []string         `json:"member_ids,omitempty"`
	Upgrade     game.UpgradeType `json:"upgrade,omitempty"`
}

type TributeRequest struct {
	GangID string `json:"gang_id"`
	Eddies int    `json:"eddies"`
}

type OperationRequest struct {
	Type        game.OperationType `json:"type"`
	TerritoryID string             `json:"territory_id"`
	MemberIDs   []string           `json:"member_ids,omitempty"`
}

// StartOperationRequest records an operation for any initiator.
type StartOperationRequest struct {
	Type        game.OperationType `json:"type"`
	TargetID    string             `json:"target_id"`
	InitiatorID string             `json:"initiator_id"`
	Power       int                `json:"power"`
	DurationMS  int64              `json:"duration_ms"`
	MemberIDs   []string           `json:"member_ids,omitempty"`
}

type ResolveOperationRequest struct {
	OperationID string `json:"operation_id"`
}

type EncounterRequest struct {
	EncounterID string `json:"encounter_id"`
	Option      int    `json:"option"`
}

// CatalogResponse lists what can be bought.
type CatalogResponse struct {
	Recruits []game.RecruitProfile `json:"recruits"`
	Upgrades []game.UpgradeOffer   `json:"upgrades"`
	Balance  CatalogPrices         `json:"prices"`
}

type CatalogPrices struct {
	Refresh   int `json:"refresh"`
	Recruit   int `json:"recruit"`
	HealPerHP int `json:"heal_per_hp"`
	Capture   int `json:"capture"`
}

// Handler serves the REST API and the websocket endpoint.
type Handler struct {
	engine *game.Engine
	saves  *save.Manager
	hub    *Hub
}

// NewHandler wires the API to an engine, its save manager and the hub.
func NewHandler(engine *game.Engine, saves *save.Manager, hub *Hub) *Handler {
	return &Handler{engine: engine, saves: saves, hub: hub}
}

// Routes returns the full route table.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("GET /api/state", h.HandleGetState)
	mux.HandleFunc("GET /api/notifications", h.HandleGetNotifications)
	mux.HandleFunc("GET /api/catalog", h.HandleGetCatalog)
	mux.HandleFunc("GET /api/event", h.HandleGetEvent)
	mux.HandleFunc("GET /api/gangs", h.HandleGetGangs)
	mux.HandleFunc("GET /api/operations", h.HandleGetOperations)
	mux.HandleFunc("GET /api/missions/progress/{member}", h.HandleMissionProgress)
	mux.HandleFunc("GET /api/territories/{id}/intel", h.HandleGetIntel)
	mux.HandleFunc("GET /api/territories/{id}/gang", h.HandleGetTerritoryGang)

	// Action Endpoints
	mux.HandleFunc("POST /api/missions/start", h.HandleStartMission)
	mux.HandleFunc("POST /api/missions/complete", h.HandleCompleteMission)
	mux.HandleFunc("POST /api/missions/refresh", h.HandleRefreshMissions)
	mux.HandleFunc("POST /api/crew/recruit", h.HandleRecruit)
	mux.HandleFunc("POST /api/crew/heal", h.HandleHeal)
	mux.HandleFunc("POST /api/crew/upgrade", h.HandleUpgradeMember)
	mux.HandleFunc("POST /api/eddies", h.HandleAddEddies)
	mux.HandleFunc("POST /api/rep", h.HandleAddRep)
	mux.HandleFunc("POST /api/gang/name", h.HandleSetGangName)
	mux.HandleFunc("POST /api/territories/capture", h.HandleCaptureTerritory)
	mux.HandleFunc("POST /api/territories/attack", h.HandleAttackTerritory)
	mux.HandleFunc("POST /api/territories/upgrade", h.HandleInstallUpgrade)
	mux.HandleFunc("POST /api/gangs/tribute", h.HandleTribute)
	mux.HandleFunc("POST /api/operations/launch", h.HandleLaunchOperation)
	mux.HandleFunc("POST /api/operations/assault", h.HandlePlayerAssault)
	mux.HandleFunc("POST /api/operations/start", h.HandleStartOperation)
	mux.HandleFunc("POST /api/operations/resolve", h.HandleResolveOperation)
	mux.HandleFunc("POST /api/encounters/resolve", h.HandleResolveEncounter)

	// Persistence Endpoints
	mux.HandleFunc("GET /api/settings", h.HandleGetSettings)
	mux.HandleFunc("PUT /api/settings", h.HandlePutSettings)
	mux.HandleFunc("POST /api/save", h.HandleSave)
	mux.HandleFunc("POST /api/reset", h.HandleReset)

	// Real-Time WebSocket Endpoint
	mux.HandleFunc("GET /ws", h.HandleWs)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: encode response: %v", err)
	}
}

// writeResult answers 200 for a successful action and 409 otherwise.
func writeResult(w http.ResponseWriter, res game.Result, body any) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusConflict
	}
	writeJSON(w, status, body)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

// HandleGetState returns the full game document.
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.State())
}

// HandleGetNotifications returns the recent notification feed.
func (h *Handler) HandleGetNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Notifications())
}

// HandleGetCatalog returns recruit classes, upgrade offers and flat prices.
func (h *Handler) HandleGetCatalog(w http.ResponseWriter, r *http.Request) {
	c := h.engine.Content()
	writeJSON(w, http.StatusOK, CatalogResponse{
		Recruits: c.Recruits,
		Upgrades: c.Upgrades,
		Balance: CatalogPrices{
			Refresh:   c.Balance.RefreshCost,
			Recruit:   c.Balance.RecruitCost,
			HealPerHP: c.Balance.HealCostPerHP,
			Capture:   c.Balance.CaptureCost,
		},
	})
}

// HandleGetEvent returns the running city event, or 204 when there is none.
func (h *Handler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, active := h.engine.CurrentEvent()
	if !active {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleGetGangs lists rival gangs.
func (h *Handler) HandleGetGangs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.GangInfo())
}

// HandleGetOperations lists operations, filtered by ?territory= when given.
func (h *Handler) HandleGetOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Operations(r.URL.Query().Get("territory")))
}

// HandleMissionProgress reports a member's running mission.
func (h *Handler) HandleMissionProgress(w http.ResponseWriter, r *http.Request) {
	p, found := h.engine.MissionProgress(r.PathValue("member"))
	if !found {
		http.Error(w, "Member is not on a mission", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleGetIntel returns the player's view of a territory.
func (h *Handler) HandleGetIntel(w http.ResponseWriter, r *http.Request) {
	report, found := h.engine.Intel(r.PathValue("id"))
	if !found {
		http.Error(w, "Territory not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleGetTerritoryGang returns the gang holding a territory.
func (h *Handler) HandleGetTerritoryGang(w http.ResponseWriter, r *http.Request) {
	info, found := h.engine.GangByTerritory(r.PathValue("id"))
	if !found {
		http.Error(w, "No gang holds this territory", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleStartMission sends a team on a mission from the job board.
func (h *Handler) HandleStartMission(w http.ResponseWriter, r *http.Request) {
	var req StartMissionRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.StartMission(req.MemberIDs, req.MissionID)
	writeResult(w, res.Result, res)
}

// HandleCompleteMission resolves an active mission ahead of its timer.
func (h *Handler) HandleCompleteMission(w http.ResponseWriter, r *http.Request) {
	var req CompleteMissionRequest
	if !decode(w, r, &req) {
		return
	}
	report, found := h.engine.CompleteMission(req.ActiveMissionID)
	if !found {
		http.Error(w, "Active mission not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleRefreshMissions pays for a new job board.
func (h *Handler) HandleRefreshMissions(w http.ResponseWriter, r *http.Request) {
	res := h.engine.RefreshMissions()
	writeResult(w, res, res)
}

// HandleRecruit hires a crew member.
func (h *Handler) HandleRecruit(w http.ResponseWriter, r *http.Request) {
	var req RecruitRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.Recruit(req.Class)
	writeResult(w, res.Result, res)
}

// HandleHeal restores a member to full health.
func (h *Handler) HandleHeal(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.HealMember(req.MemberID)
	writeResult(w, res, res)
}

// HandleUpgradeMember trains a member stat.
func (h *Handler) HandleUpgradeMember(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.UpgradeMember(req.MemberID, req.Stat)
	writeResult(w, res, res)
}

// HandleAddEddies adjusts the balance.
func (h *Handler) HandleAddEddies(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decode(w, r, &req) {
		return
	}
	h.engine.AddEddies(req.Amount)
	writeJSON(w, http.StatusOK, h.engine.State())
}

// HandleAddRep adjusts reputation.
func (h *Handler) HandleAddRep(w http.ResponseWriter, r *http.Request) {
	var req AmountRequest
	if !decode(w, r, &req) {
		return
	}
	h.engine.AddRep(req.Amount)
	writeJSON(w, http.StatusOK, h.engine.State())
}

// HandleSetGangName renames the player's gang.
func (h *Handler) HandleSetGangName(w http.ResponseWriter, r *http.Request) {
	var req GangNameRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.SetGangName(req.Name)
	writeResult(w, res, res)
}

// HandleCaptureTerritory buys an unclaimed territory.
func (h *Handler) HandleCaptureTerritory(w http.ResponseWriter, r *http.Request) {
	var req TerritoryRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.CaptureTerritory(req.TerritoryID)
	writeResult(w, res, res)
}

// HandleAttackTerritory runs an immediate attack on rival turf.
func (h *Handler) HandleAttackTerritory(w http.ResponseWriter, r *http.Request) {
	var req TerritoryRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.AttackTerritory(req.TerritoryID, req.MemberIDs)
	writeResult(w, res.Result, res)
}

// HandleInstallUpgrade buys an upgrade level on a player territory.
func (h *Handler) HandleInstallUpgrade(w http.ResponseWriter, r *http.Request) {
	var req TerritoryRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.InstallUpgrade(req.TerritoryID, req.Upgrade)
	writeResult(w, res, res)
}

// HandleTribute pays a rival gang for better relations.
func (h *Handler) HandleTribute(w http.ResponseWriter, r *http.Request) {
	var req TributeRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.SendTribute(req.GangID, req.Eddies)
	writeResult(w, res, res)
}

// HandleLaunchOperation starts a player operation.
func (h *Handler) HandleLaunchOperation(w http.ResponseWriter, r *http.Request) {
	var req OperationRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.LaunchOperation(req.Type, req.TerritoryID, req.MemberIDs)
	writeResult(w, res.Result, res)
}

// HandlePlayerAssault starts a player assault.
func (h *Handler) HandlePlayerAssault(w http.ResponseWriter, r *http.Request) {
	var req OperationRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.InitiatePlayerAssault(req.TerritoryID, req.MemberIDs)
	writeResult(w, res.Result, res)
}

// HandleStartOperation records a raw operation. It skips the territory checks
// of launch and is meant for tooling; bound crew must still be available.
func (h *Handler) HandleStartOperation(w http.ResponseWriter, r *http.Request) {
	var req StartOperationRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TargetID == "" || req.InitiatorID == "" {
		http.Error(w, "target_id and initiator_id are required", http.StatusBadRequest)
		return
	}
	res := h.engine.StartOperation(req.Type, req.TargetID, req.InitiatorID, req.Power,
		time.Duration(req.DurationMS)*time.Millisecond, req.MemberIDs)
	writeResult(w, res.Result, res)
}

// HandleResolveOperation resolves an operation ahead of its end time.
func (h *Handler) HandleResolveOperation(w http.ResponseWriter, r *http.Request) {
	var req ResolveOperationRequest
	if !decode(w, r, &req) {
		return
	}
	h.engine.ResolveOperation(req.OperationID)
	writeJSON(w, http.StatusOK, h.engine.Operations(""))
}

// HandleResolveEncounter picks an option of an active encounter.
func (h *Handler) HandleResolveEncounter(w http.ResponseWriter, r *http.Request) {
	var req EncounterRequest
	if !decode(w, r, &req) {
		return
	}
	res := h.engine.ResolveEncounter(req.EncounterID, req.Option)
	writeResult(w, res.Result, res)
}

// HandleGetSettings returns the stored settings, or defaults.
func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.saves.LoadSettings(r.Context()))
}

// HandlePutSettings replaces the stored settings.
func (h *Handler) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var s save.Settings
	if !decode(w, r, &s) {
		return
	}
	if s.MusicVolume < 0 || s.MusicVolume > 1 || s.SfxVolume < 0 || s.SfxVolume > 1 {
		http.Error(w, "Volume must be between 0 and 1", http.StatusBadRequest)
		return
	}
	if err := h.saves.SaveSettings(r.Context(), s); err != nil {
		log.Printf("Save: %v", err)
		http.Error(w, "Could not store settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.saves.LoadSettings(r.Context()))
}

// HandleSave persists the current snapshot immediately.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SaveNow(r.Context()); err != nil {
		log.Printf("Save: %v", err)
		http.Error(w, "Save failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset wipes storage and starts a new game.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Reset(r.Context()); err != nil {
		log.Printf("Reset: %v", err)
		http.Error(w, "Reset failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.State())
}

// HandleWs upgrades to a websocket. The first frame is the current state.
func (h *Handler) HandleWs(w http.ResponseWriter, r *http.Request) {
	greeting, err := encode(KindState, h.engine.State())
	if err != nil {
		log.Printf("WS: encode greeting: %v", err)
		greeting = nil
	}
	ServeWs(h.hub, w, r, greeting)
}

// CORS allows the browser UI to call the API from another origin.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
