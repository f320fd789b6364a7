package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/BilanDracDraaf/grist-prefill/internal/client/demarches"
	"github.com/BilanDracDraaf/grist-prefill/internal/service"
)

type DiagnosticsHandler struct {
	diagnostics *service.DiagnosticsService
}

func NewDiagnosticsHandler(diagnostics *service.DiagnosticsService) *DiagnosticsHandler {
	return &DiagnosticsHandler{diagnostics: diagnostics}
}

func (h *DiagnosticsHandler) CheckGrist(w http.ResponseWriter, r *http.Request) {
	tables, err := h.diagnostics.CheckGrist()
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.ID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Connexion réussie à Grist. Tables disponibles: " + strings.Join(names, ", "),
		"tables":  names,
	})
}

func (h *DiagnosticsHandler) CheckDemarches(w http.ResponseWriter, r *http.Request) {
	url, err := h.diagnostics.CheckDemarches()
	if err != nil {
		if errors.Is(err, demarches.ErrMissingCredential) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"dossier_url": url})
}
