package mapping

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/BilanDracDraaf/grist-prefill/internal/models"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ParseAmount coerces an amount string leniently: surrounding whitespace is
// ignored, a decimal value is truncated, anything unparsable counts as 0.
// Never fails.
func ParseAmount(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// MissingRequiredFields returns one user-facing label per missing or
// invalid required field, in a fixed order: email, project title, case
// number, DRAC amount, DRAAF amount. Empty result means the record can be
// submitted. Name is not required.
func MissingRequiredFields(record models.CaseRecord) []string {
	var missing []string

	switch {
	case record.Email == "":
		missing = append(missing, "Email")
	case !IsValidEmail(record.Email):
		missing = append(missing, "Email (format invalide)")
	}

	if record.ProjectTitle == "" {
		missing = append(missing, "Titre du projet")
	}

	if record.CaseNumber == "" {
		missing = append(missing, "Numéro de dossier")
	}

	if ParseAmount(record.DracAmount) <= 0 {
		missing = append(missing, "Montant DRAC")
	}

	if ParseAmount(record.DraafAmount) <= 0 {
		missing = append(missing, "Montant DRAAF")
	}

	return missing
}
