package mapping

import "github.com/BilanDracDraaf/grist-prefill/internal/models"

// MappedFields maps Démarches Simplifiées field identifiers to the string
// values to pre-fill.
type MappedFields map[string]string

// FieldMapping is the fixed translation from the six canonical record
// attributes to the champ identifiers of the target démarche. Never
// mutated at runtime.
var FieldMapping = map[string]string{
	"Titre_du_projet": "Q2hhbXAtNjIyMzQw",
	"Numero_dossier":  "Q2hhbXAtNjA3OTQ3",
	"Montant_DRAC":    "Q2hhbXAtNDA3NDExMQ",
	"Montant_DRAAF":   "Q2hhbXAtNDA3NDExMg",
	"Nom":             "Q2hhbXAtNjA3OTcy",
	"Email":           "Q2hhbXAtNjA3OTc1",
}

// MapToExternal translates a record into the field identifiers expected by
// the prefill API. Pure and deterministic: the same record always yields
// the same mapping.
func MapToExternal(record models.CaseRecord) MappedFields {
	values := map[string]string{
		"Titre_du_projet": record.ProjectTitle,
		"Numero_dossier":  record.CaseNumber,
		"Montant_DRAC":    record.DracAmount,
		"Montant_DRAAF":   record.DraafAmount,
		"Nom":             record.Name,
		"Email":           record.Email,
	}

	mapped := make(MappedFields, len(FieldMapping))
	for attribute, fieldID := range FieldMapping {
		mapped[fieldID] = values[attribute]
	}
	return mapped
}
