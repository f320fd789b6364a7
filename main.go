package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BilanDracDraaf/grist-prefill/internal/api"
	"github.com/BilanDracDraaf/grist-prefill/internal/client/demarches"
	"github.com/BilanDracDraaf/grist-prefill/internal/client/grist"
	"github.com/BilanDracDraaf/grist-prefill/internal/config"
	"github.com/BilanDracDraaf/grist-prefill/internal/service"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Erreur d'initialisation du logger:", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	root := &cobra.Command{
		Use:   "grist-prefill",
		Short: "Génère des liens Démarches Simplifiées pré-remplis depuis Grist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg, sugar)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Démarre l'API HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfg, sugar)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Teste la connexion à Grist et à Démarches Simplifiées",
		RunE: func(cmd *cobra.Command, args []string) error {
			return check(cfg)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfg *config.Config, sugar *zap.SugaredLogger) error {
	if cfg.GristAPIKey == "" {
		sugar.Warn("GRIST_API_KEY non configurée, les recherches échoueront")
	}
	if cfg.DSToken == "" {
		sugar.Warn("API_TOKEN_BILAN_DRAC_DRAAF non configuré, la génération de lien échouera")
	}

	router := api.SetupRouter(cfg, sugar)

	fmt.Println("✅ Création dossier bilan Drac Draaf")
	fmt.Println("🚀 Serveur en écoute sur " + cfg.ListenAddr)
	fmt.Println("📝 Endpoints disponibles:")
	fmt.Println("   POST /sessions - Ouvrir une session")
	fmt.Println("   POST /sessions/{id}/search - Rechercher un dossier par email")
	fmt.Println("   POST /sessions/{id}/prefill - Générer le lien pré-rempli")
	fmt.Println("   GET /diagnostics/grist - Tester la connexion Grist")

	return http.ListenAndServe(cfg.ListenAddr, router)
}

// check exercises both remote services: lists the Grist tables, shows
// their structure, then posts a fake record to the prefill API.
func check(cfg *config.Config) error {
	gristClient := grist.NewClient(cfg.GristBaseURL, cfg.GristAPIKey, cfg.GristDocID)
	dsClient := demarches.NewClient(cfg.DSBaseURL, cfg.DSToken)
	diagnostics := service.NewDiagnosticsService(gristClient, dsClient, cfg.DemarcheID)

	fmt.Println("=== Test de connexion à Grist ===")
	tables, err := diagnostics.CheckGrist()
	if err != nil {
		fmt.Println("❌ Échec:", err)
		return err
	}

	names := make([]string, 0, len(tables))
	for _, table := range tables {
		names = append(names, table.ID)
	}
	fmt.Println("✅ Connexion réussie à Grist. Tables disponibles: " + strings.Join(names, ", "))

	for _, tableID := range []string{cfg.ProjectsTable, cfg.AnnotationsTable} {
		columns, err := diagnostics.TableStructure(tableID)
		if err != nil {
			fmt.Printf("⚠️  Structure de %s illisible: %v\n", tableID, err)
			continue
		}
		ids := make([]string, 0, len(columns))
		for _, column := range columns {
			ids = append(ids, column.ID)
		}
		fmt.Printf("   %s: %s\n", tableID, strings.Join(ids, ", "))
	}

	fmt.Println("\n=== Test de connexion à Démarches Simplifiées ===")
	url, err := diagnostics.CheckDemarches()
	if err != nil {
		fmt.Println("❌ Échec:", err)
		return err
	}
	fmt.Println("✅ Test réussi ! URL générée:", url)

	return nil
}
