package api

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/BilanDracDraaf/grist-prefill/internal/api/handlers"
	"github.com/BilanDracDraaf/grist-prefill/internal/client/demarches"
	"github.com/BilanDracDraaf/grist-prefill/internal/client/grist"
	"github.com/BilanDracDraaf/grist-prefill/internal/config"
	"github.com/BilanDracDraaf/grist-prefill/internal/service"
	"github.com/BilanDracDraaf/grist-prefill/internal/session"
)

func SetupRouter(cfg *config.Config, log *zap.SugaredLogger) *http.ServeMux {
	mux := http.NewServeMux()

	gristClient := grist.NewClient(cfg.GristBaseURL, cfg.GristAPIKey, cfg.GristDocID)
	dsClient := demarches.NewClient(cfg.DSBaseURL, cfg.DSToken)

	resolver := service.NewResolverService(gristClient, cfg.ProjectsTable, cfg.AnnotationsTable, log)
	prefill := service.NewPrefillService(dsClient, cfg.DemarcheID, log)
	diagnostics := service.NewDiagnosticsService(gristClient, dsClient, cfg.DemarcheID)

	sessions := session.NewStore()

	dossierHandler := handlers.NewDossierHandler(resolver, prefill, sessions, log)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(diagnostics)

	mux.HandleFunc("POST /sessions", dossierHandler.CreateSession)
	mux.HandleFunc("GET /sessions/{id}", dossierHandler.GetSession)
	mux.HandleFunc("POST /sessions/{id}/search", dossierHandler.Search)
	mux.HandleFunc("POST /sessions/{id}/prefill", dossierHandler.GeneratePrefill)
	mux.HandleFunc("DELETE /sessions/{id}/link", dossierHandler.ResetLink)

	mux.HandleFunc("GET /diagnostics/grist", diagnosticsHandler.CheckGrist)
	mux.HandleFunc("POST /diagnostics/demarches", diagnosticsHandler.CheckDemarches)

	return mux
}
