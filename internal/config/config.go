package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	DefaultGristBaseURL     = "https://grist.numerique.gouv.fr/api"
	DefaultProjectsTable    = "Demarche_87698_dossiers"
	DefaultAnnotationsTable = "Demarche_87698_annotations"
	DefaultDSBaseURL        = "https://www.demarches-simplifiees.fr/api/public/v1"
	DefaultDemarcheID       = "111570"
	DefaultListenAddr       = ":8080"
)

// Config holds every external parameter of the tool, built once at startup
// and passed into each component. Nothing reads the environment after Load.
type Config struct {
	GristBaseURL     string
	GristAPIKey      string
	GristDocID       string
	ProjectsTable    string
	AnnotationsTable string

	DSBaseURL  string
	DSToken    string
	DemarcheID string

	ListenAddr string
}

// Load reads the .env file when present, then the environment. A missing
// .env is not an error: deployment may inject the variables directly.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GristBaseURL:     getenv("GRIST_BASE_URL", DefaultGristBaseURL),
		GristAPIKey:      os.Getenv("GRIST_API_KEY"),
		GristDocID:       os.Getenv("GRIST_DOC_ID"),
		ProjectsTable:    getenv("GRIST_PROJETS_TABLE", DefaultProjectsTable),
		AnnotationsTable: getenv("GRIST_ANNOTATIONS_TABLE", DefaultAnnotationsTable),
		DSBaseURL:        getenv("DS_BASE_URL", DefaultDSBaseURL),
		DSToken:          os.Getenv("API_TOKEN_BILAN_DRAC_DRAAF"),
		DemarcheID:       getenv("DEMARCHE_ID", DefaultDemarcheID),
		ListenAddr:       getenv("LISTEN_ADDR", DefaultListenAddr),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
