package service

import (
	"github.com/BilanDracDraaf/grist-prefill/internal/client"
	"github.com/BilanDracDraaf/grist-prefill/internal/mapping"
	"github.com/BilanDracDraaf/grist-prefill/internal/models"
)

// testRecord is the fake dossier posted by the Démarches Simplifiées
// connectivity check.
var testRecord = models.CaseRecord{
	Name:         "Test Utilisateur",
	Email:        "test@example.com",
	ProjectTitle: "Projet Test API",
	CaseNumber:   "TEST123",
	DracAmount:   "1000",
	DraafAmount:  "500",
}

// DiagnosticsService checks connectivity with both remote services.
type DiagnosticsService struct {
	tables     client.TableProvider
	prefiller  client.PrefillGenerator
	demarcheID string
}

func NewDiagnosticsService(tables client.TableProvider, prefiller client.PrefillGenerator, demarcheID string) *DiagnosticsService {
	return &DiagnosticsService{
		tables:     tables,
		prefiller:  prefiller,
		demarcheID: demarcheID,
	}
}

// CheckGrist lists the document's tables.
func (s *DiagnosticsService) CheckGrist() ([]models.TableDescriptor, error) {
	return s.tables.ListTables()
}

// TableStructure returns the column ids of a table, for debugging a
// mismatched schema.
func (s *DiagnosticsService) TableStructure(tableID string) ([]models.ColumnDescriptor, error) {
	return s.tables.GetTableColumns(tableID)
}

// CheckDemarches posts a fake record to the prefill API and returns the
// generated link.
func (s *DiagnosticsService) CheckDemarches() (string, error) {
	return s.prefiller.GeneratePrefilledURL(mapping.MapToExternal(testRecord), s.demarcheID)
}
