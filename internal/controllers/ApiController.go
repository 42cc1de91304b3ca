package controllers

import (
	"annolist/internal/backends"
	"annolist/internal/models"
	"annolist/internal/providers"
	"annolist/internal/services"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

type ApiController struct {
	logger  providers.Logger
	service services.AnnotationServiceInterface
}

func NewApiController(logger providers.Logger, service services.AnnotationServiceInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
	}
}

type panelRequest struct {
	Panel string               `json:"panel"`
	Host  services.HostContext `json:"host"`
}

type tagRequest struct {
	panelRequest
	Tag string `json:"tag"`
}

type annotationRequest struct {
	panelRequest
	Annotation *models.Annotation `json:"annotation"`
}

type optionsRequest struct {
	panelRequest
	Options models.PanelOptions `json:"options"`
}

func (ac *ApiController) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		ac.logger.Debugf(providers.TypePost, "Rejected %s body: %v", r.URL.Path, err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func (ac *ApiController) respond(w http.ResponseWriter, r *http.Request, result any, err error) {
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, services.ErrPanelRequired) || errors.Is(err, backends.ErrUnknownDatasource) {
			status = http.StatusBadRequest
		}
		ac.logger.Warnf(providers.GetLogTypeByRequestType(r.Method), "%s: %v", r.URL.Path, err)
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) GetPanel(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	view, ok := ac.service.View(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (ac *ApiController) GetDatasources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.service.Datasources())
}

func (ac *ApiController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req panelRequest
	if !ac.decode(w, r, &req) {
		return
	}
	view, err := ac.service.Refresh(r.Context(), req.Panel, req.Host)
	ac.respond(w, r, view, err)
}

func (ac *ApiController) ToggleTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !ac.decode(w, r, &req) {
		return
	}
	view, err := ac.service.ToggleTag(r.Context(), req.Panel, req.Tag, req.Host)
	ac.respond(w, r, view, err)
}

func (ac *ApiController) PinTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !ac.decode(w, r, &req) {
		return
	}
	view, err := ac.service.PinTag(r.Context(), req.Panel, req.Tag, req.Host)
	ac.respond(w, r, view, err)
}

func (ac *ApiController) ToggleUser(w http.ResponseWriter, r *http.Request) {
	var req annotationRequest
	if !ac.decode(w, r, &req) {
		return
	}
	if req.Annotation == nil {
		req.Annotation = &models.Annotation{}
	}
	view, err := ac.service.ToggleUser(r.Context(), req.Panel, req.Annotation, req.Host)
	ac.respond(w, r, view, err)
}

func (ac *ApiController) Navigate(w http.ResponseWriter, r *http.Request) {
	var req annotationRequest
	if !ac.decode(w, r, &req) {
		return
	}
	if req.Annotation == nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	target, err := ac.service.Navigate(r.Context(), req.Panel, req.Annotation, req.Host)
	ac.respond(w, r, target, err)
}

func (ac *ApiController) ConfigurePanel(w http.ResponseWriter, r *http.Request) {
	req := optionsRequest{Options: models.DefaultPanelOptions()}
	if !ac.decode(w, r, &req) {
		return
	}
	view, err := ac.service.Configure(r.Context(), req.Panel, req.Options, req.Host)
	ac.respond(w, r, view, err)
}
