package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vendorbook/vendorbook/internal/domain"
	"github.com/vendorbook/vendorbook/internal/platform/auth"
	"github.com/vendorbook/vendorbook/internal/repo"
	vendorsvc "github.com/vendorbook/vendorbook/internal/service/vendors"
)

// routePrefixes are the mount points of the vendor routes. /api/vendors
// serves clients that still use the /api path.
var routePrefixes = []string{"/vendors", "/api/vendors"}

type vendorsAPI struct {
	logger        *slog.Logger
	service       *vendorsvc.Service
	authenticator auth.Authenticator
}

func newVendorsAPI(logger *slog.Logger, service *vendorsvc.Service, authenticator auth.Authenticator) *vendorsAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &vendorsAPI{
		logger:        logger,
		service:       service,
		authenticator: authenticator,
	}
}

func (api *vendorsAPI) register(mux *http.ServeMux) {
	for _, prefix := range routePrefixes {
		mux.HandleFunc("GET "+prefix, api.handleListVendors)
		mux.HandleFunc("POST "+prefix, api.handleCreateVendor)
		mux.HandleFunc("GET "+prefix+"/{id}", api.handleGetVendor)
		mux.HandleFunc("PUT "+prefix+"/{id}", api.handleUpdateVendor)
		mux.HandleFunc("DELETE "+prefix+"/{id}", api.handleDeleteVendor)
	}
}

type vendor struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	BankAccountNo string    `json:"bankAccountNo"`
	BankName      string    `json:"bankName"`
	AddressLine1  string    `json:"addressLine1"`
	AddressLine2  string    `json:"addressLine2"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	ZipCode       string    `json:"zipCode"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func vendorFromDomain(v domain.Vendor) vendor {
	return vendor{
		ID:            v.ID,
		Name:          v.Name,
		BankAccountNo: v.BankAccountNo,
		BankName:      v.BankName,
		AddressLine1:  v.AddressLine1,
		AddressLine2:  v.AddressLine2,
		City:          v.City,
		Country:       v.Country,
		ZipCode:       v.ZipCode,
		CreatedBy:     v.CreatedBy,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

type pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type listVendorsResponse struct {
	Vendors    []vendor   `json:"vendors"`
	Pagination pagination `json:"pagination"`
}

// vendorRequest is the body of create and update. Server-owned fields such
// as id, createdBy and the timestamps are not declared and so are ignored.
type vendorRequest struct {
	Name          *string `json:"name"`
	BankAccountNo *string `json:"bankAccountNo"`
	BankName      *string `json:"bankName"`
	AddressLine1  *string `json:"addressLine1"`
	AddressLine2  *string `json:"addressLine2"`
	City          *string `json:"city"`
	Country       *string `json:"country"`
	ZipCode       *string `json:"zipCode"`
}

func (req vendorRequest) input() vendorsvc.Input {
	value := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return vendorsvc.Input{
		Name:          value(req.Name),
		BankAccountNo: value(req.BankAccountNo),
		BankName:      value(req.BankName),
		AddressLine1:  value(req.AddressLine1),
		AddressLine2:  value(req.AddressLine2),
		City:          value(req.City),
		Country:       value(req.Country),
		ZipCode:       value(req.ZipCode),
	}
}

func (req vendorRequest) patch() domain.VendorPatch {
	return domain.VendorPatch{
		Name:          req.Name,
		BankAccountNo: req.BankAccountNo,
		BankName:      req.BankName,
		AddressLine1:  req.AddressLine1,
		AddressLine2:  req.AddressLine2,
		City:          req.City,
		Country:       req.Country,
		ZipCode:       req.ZipCode,
	}
}

func (api *vendorsAPI) caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.CurrentIdentity(r, api.authenticator)
	if !ok {
		auth.WriteUnauthorized(w, r.Header.Get("X-Request-Id"))
		return auth.Identity{}, false
	}
	return identity, true
}

func (api *vendorsAPI) handleListVendors(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.caller(w, r)
	if !ok {
		return
	}

	page := parseIntQuery(r, "page", vendorsvc.DefaultPage)
	limit := parseIntQuery(r, "limit", vendorsvc.DefaultLimit)
	res, err := api.service.List(r.Context(), identity.Email, page, limit)
	if err != nil {
		api.writeServiceError(w, r, err, "Failed to fetch vendors")
		return
	}

	out := make([]vendor, 0, len(res.Vendors))
	for _, v := range res.Vendors {
		out = append(out, vendorFromDomain(v))
	}
	api.writeJSON(w, http.StatusOK, listVendorsResponse{
		Vendors: out,
		Pagination: pagination{
			Total:      res.Pagination.Total,
			Page:       res.Pagination.Page,
			Limit:      res.Pagination.Limit,
			TotalPages: res.Pagination.TotalPages,
		},
	})
}

func (api *vendorsAPI) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.caller(w, r)
	if !ok {
		return
	}

	var req vendorRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	created, err := api.service.Create(r.Context(), identity.Email, req.input())
	if err != nil {
		api.writeServiceError(w, r, err, "Failed to create vendor")
		return
	}
	api.logger.Info("vendor created", "request_id", r.Header.Get("X-Request-Id"), "vendor_id", created.ID)
	api.writeJSON(w, http.StatusCreated, vendorFromDomain(created))
}

func (api *vendorsAPI) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.caller(w, r)
	if !ok {
		return
	}

	found, err := api.service.Get(r.Context(), identity.Email, strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		api.writeServiceError(w, r, err, "Failed to fetch vendor")
		return
	}
	api.writeJSON(w, http.StatusOK, vendorFromDomain(found))
}

func (api *vendorsAPI) handleUpdateVendor(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.caller(w, r)
	if !ok {
		return
	}

	var req vendorRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}

	updated, err := api.service.Update(r.Context(), identity.Email, strings.TrimSpace(r.PathValue("id")), req.patch())
	if err != nil {
		api.writeServiceError(w, r, err, "Failed to update vendor")
		return
	}
	api.writeJSON(w, http.StatusOK, vendorFromDomain(updated))
}

func (api *vendorsAPI) handleDeleteVendor(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.caller(w, r)
	if !ok {
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if err := api.service.Delete(r.Context(), identity.Email, id); err != nil {
		api.writeServiceError(w, r, err, "Failed to delete vendor")
		return
	}
	api.logger.Info("vendor deleted", "request_id", r.Header.Get("X-Request-Id"), "vendor_id", id)
	api.writeJSON(w, http.StatusOK, map[string]any{"message": "Vendor deleted successfully"})
}

// writeServiceError maps service errors onto the HTTP taxonomy. fallback is
// the only detail a 500 reveals; the cause goes to the log.
func (api *vendorsAPI) writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verr *vendorsvc.ValidationError
	switch {
	case errors.Is(err, vendorsvc.ErrAuthRequired):
		auth.WriteUnauthorized(w, r.Header.Get("X-Request-Id"))
	case errors.As(err, &verr):
		api.writeError(w, r, http.StatusBadRequest, "validation_error", verr.Error())
	case errors.Is(err, repo.ErrNotFound):
		api.writeError(w, r, http.StatusNotFound, "not_found", "Vendor not found")
	default:
		api.logger.Error("vendor request failed",
			"request_id", r.Header.Get("X-Request-Id"),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error", fallback)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func (api *vendorsAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *vendorsAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	api.writeJSON(w, status, map[string]any{
		"error":      message,
		"code":       code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}
