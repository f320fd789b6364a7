package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/BilanDracDraaf/grist-prefill/internal/client/demarches"
	"github.com/BilanDracDraaf/grist-prefill/internal/mapping"
	"github.com/BilanDracDraaf/grist-prefill/internal/models"
	"github.com/BilanDracDraaf/grist-prefill/internal/service"
	"github.com/BilanDracDraaf/grist-prefill/internal/session"
)

type SearchRequestBody struct {
	Email string `json:"email"`
}

type DossierHandler struct {
	resolver *service.ResolverService
	prefill  *service.PrefillService
	sessions *session.Store
	log      *zap.SugaredLogger
}

func NewDossierHandler(resolver *service.ResolverService, prefill *service.PrefillService, sessions *session.Store, log *zap.SugaredLogger) *DossierHandler {
	return &DossierHandler{
		resolver: resolver,
		prefill:  prefill,
		sessions: sessions,
		log:      log,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (h *DossierHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id := h.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

// Search looks the dossier up by email and loads it into the session.
// The email format is checked before any call to Grist.
func (h *DossierHandler) Search(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := h.sessions.Snapshot(id); !ok {
		writeError(w, http.StatusNotFound, "Session inconnue")
		return
	}

	var reqBody SearchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		writeError(w, http.StatusBadRequest, "JSON error: "+err.Error())
		return
	}

	if reqBody.Email == "" {
		writeError(w, http.StatusBadRequest, "Veuillez saisir une adresse email pour effectuer la recherche")
		return
	}
	if !mapping.IsValidEmail(reqBody.Email) {
		writeError(w, http.StatusBadRequest, "Format d'email invalide")
		return
	}

	record, err := h.resolver.Resolve(reqBody.Email)
	if err != nil {
		var schemaErr *service.SchemaMismatchError
		switch {
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &schemaErr):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Errorw("échec de la recherche", "err", err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	h.sessions.SetRecord(id, record)

	writeJSON(w, http.StatusOK, map[string]any{
		"dossier":          record,
		"champs_manquants": checklist(record),
	})
}

// GetSession returns the session's record, its completeness checklist and
// the generated link, if any.
func (h *DossierHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	state, ok := h.sessions.Snapshot(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Session inconnue")
		return
	}

	record := models.CaseRecord{}
	if state.Record != nil {
		record = *state.Record
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"dossier":          state.Record,
		"champs_manquants": checklist(record),
		"dossier_url":      state.DossierURL,
	})
}

// GeneratePrefill creates the pre-filled dossier link for the session's
// record. Refused while required fields are missing.
func (h *DossierHandler) GeneratePrefill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, ok := h.sessions.Snapshot(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Session inconnue")
		return
	}

	record := models.CaseRecord{}
	if state.Record != nil {
		record = *state.Record
	}

	url, err := h.prefill.Generate(record)
	if err != nil {
		var incomplete *service.IncompleteRecordError
		switch {
		case errors.As(err, &incomplete):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":            err.Error(),
				"champs_manquants": incomplete.Missing,
			})
		case errors.Is(err, demarches.ErrMissingCredential):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			h.log.Errorw("échec de la génération du lien", "err", err)
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	h.sessions.SetURL(id, url)

	writeJSON(w, http.StatusOK, map[string]string{"dossier_url": url})
}

// ResetLink discards the generated link ("Générer un nouveau lien").
func (h *DossierHandler) ResetLink(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.ClearURL(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "Session inconnue")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func checklist(record models.CaseRecord) []string {
	missing := mapping.MissingRequiredFields(record)
	if missing == nil {
		missing = []string{}
	}
	return missing
}
