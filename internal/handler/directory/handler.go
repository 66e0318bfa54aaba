package directory

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	directoryService "github.com/zhouzirui/peoplemap/backend/internal/service/directory"
	"github.com/zhouzirui/peoplemap/backend/pkg/utils"
)

// Handler 目录服务的HTTP处理器
type Handler struct {
	svc    *directoryService.Service
	logger *zap.Logger
}

// New 创建目录处理器
func New(svc *directoryService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes 注册目录相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/organizations", h.handleOrganizations)
	r.Get("/search", h.handleSearch)
	r.Get("/nearby", h.handleNearby)
	r.Post("/submit", h.handleSubmit)
	r.Get("/check_profile_exists", h.handleCheckProfile)
}

// handleOrganizations 列出所有组织
func (h *Handler) handleOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.svc.Organizations(r.Context())
	if err != nil {
		utils.RespondAppError(w, h.logger, err, "failed to load organizations")
		return
	}
	utils.RespondJSON(w, http.StatusOK, orgs)
}

// handleSearch 按关键字与组织筛选
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	results, err := h.svc.Search(r.Context(), directoryService.SearchQuery{
		Text:         query.Get("q"),
		Organization: query.Get("organization"),
	})
	if err != nil {
		utils.RespondAppError(w, h.logger, err, "search failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, results)
}

// handleNearby 按距离筛选并排序
func (h *Handler) handleNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat, ok := parseFloatParam(w, query.Get("lat"), "lat", true)
	if !ok {
		return
	}
	lon, ok := parseFloatParam(w, query.Get("lon"), "lon", true)
	if !ok {
		return
	}
	radius := directoryService.DefaultRadiusKm
	if raw := strings.TrimSpace(query.Get("radius")); raw != "" {
		if radius, ok = parseFloatParam(w, raw, "radius", false); !ok {
			return
		}
	}

	results, err := h.svc.Nearby(r.Context(), directoryService.NearbyQuery{
		Latitude:     lat,
		Longitude:    lon,
		RadiusKm:     radius,
		Organization: query.Get("organization"),
	})
	if err != nil {
		utils.RespondAppError(w, h.logger, err, "nearby search failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, results)
}

// handleSubmit 新增目录条目
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload directoryService.Submission

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.svc.Submit(r.Context(), payload)
	if err != nil {
		utils.RespondAppError(w, h.logger, err, "failed to add user data")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Successfully added user data",
		"id":      id,
	})
}

// handleCheckProfile 检查邮箱是否已登记
func (h *Handler) handleCheckProfile(w http.ResponseWriter, r *http.Request) {
	exists, err := h.svc.ProfileExists(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		utils.RespondAppError(w, h.logger, err, "failed to check profile")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func parseFloatParam(w http.ResponseWriter, raw, name string, required bool) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" && required {
		utils.RespondError(w, http.StatusBadRequest, name+" is required")
		return 0, false
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		utils.RespondError(w, http.StatusBadRequest, name+" must be a number")
		return 0, false
	}
	return val, true
}
