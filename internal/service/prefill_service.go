package service

import (
	"strings"

	"go.uber.org/zap"

	"github.com/BilanDracDraaf/grist-prefill/internal/client"
	"github.com/BilanDracDraaf/grist-prefill/internal/mapping"
	"github.com/BilanDracDraaf/grist-prefill/internal/models"
)

// IncompleteRecordError refuses link generation while required fields are
// missing or invalid. Missing keeps the validator's label order.
type IncompleteRecordError struct {
	Missing []string
}

func (e *IncompleteRecordError) Error() string {
	return "Champs obligatoires manquants: " + strings.Join(e.Missing, ", ")
}

// PrefillService validates a record and generates its pre-filled dossier
// link.
type PrefillService struct {
	prefiller  client.PrefillGenerator
	demarcheID string
	log        *zap.SugaredLogger
}

func NewPrefillService(prefiller client.PrefillGenerator, demarcheID string, log *zap.SugaredLogger) *PrefillService {
	return &PrefillService{
		prefiller:  prefiller,
		demarcheID: demarcheID,
		log:        log,
	}
}

// Generate maps the record onto the démarche's fields and creates the
// pre-filled dossier. Refused with IncompleteRecordError when the
// completeness check fails; no API call is made in that case.
func (s *PrefillService) Generate(record models.CaseRecord) (string, error) {
	if missing := mapping.MissingRequiredFields(record); len(missing) > 0 {
		return "", &IncompleteRecordError{Missing: missing}
	}

	url, err := s.prefiller.GeneratePrefilledURL(mapping.MapToExternal(record), s.demarcheID)
	if err != nil {
		return "", err
	}

	s.log.Infow("lien pré-rempli généré", "demarche", s.demarcheID, "dossier", record.CaseNumber)
	return url, nil
}
