package service

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/BilanDracDraaf/grist-prefill/internal/client"
	"github.com/BilanDracDraaf/grist-prefill/internal/models"
)

// Grist column names of the dossier and annotation tables.
const (
	colName           = "A_nom"
	colEmail          = "usager_email"
	colProjectTitle   = "A_titre_du_projet"
	colCaseNumber     = "number"
	colCaseNumberPref = "N_dossier"
	colDracAmount     = "montant_drac"
	colDraafAmount    = "montant_draaf"
)

// fkProbeColumns are the annotation columns probed, in order, to find the
// reference back to the dossier. When none of them exists the resolver
// falls back to scanning values column by column.
var fkProbeColumns = []string{"dossier_id", "projet_id", "id_dossier", "parentId"}

// ErrNotFound means no dossier carries the searched email.
var ErrNotFound = errors.New("Aucun dossier trouvé avec cet email.")

// SchemaMismatchError means the dossier table does not expose a column the
// resolution depends on.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("La colonne %s n'existe pas dans la table des dossiers", e.Column)
}

// fieldSource is an ordered fallback chain for one record attribute: the
// candidate column names are tried in order, then the default applies.
type fieldSource struct {
	keys []string
	def  string
}

var (
	nameSource         = fieldSource{keys: []string{colName}}
	projectTitleSource = fieldSource{keys: []string{colProjectTitle}}
	caseNumberSource   = fieldSource{keys: []string{colCaseNumberPref, colCaseNumber}}
	dracAmountSource   = fieldSource{keys: []string{colDracAmount}, def: "0"}
	draafAmountSource  = fieldSource{keys: []string{colDraafAmount}, def: "0"}
)

func (f fieldSource) lookup(fields map[string]any) string {
	for _, key := range f.keys {
		if v, ok := fields[key]; ok {
			return coerceString(v, f.def)
		}
	}
	return f.def
}

// coerceString renders a raw Grist cell as a string. Integral numbers lose
// the decimal point JSON decoding gave them.
func coerceString(v any, fallback string) string {
	switch value := v.(type) {
	case nil:
		return fallback
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return fmt.Sprintf("%v", value)
	}
}

// ResolverService locates a dossier by email and assembles the normalized
// record the prefill pipeline works on.
type ResolverService struct {
	tables           client.TableReader
	projectsTable    string
	annotationsTable string
	log              *zap.SugaredLogger
}

func NewResolverService(tables client.TableReader, projectsTable, annotationsTable string, log *zap.SugaredLogger) *ResolverService {
	return &ResolverService{
		tables:           tables,
		projectsTable:    projectsTable,
		annotationsTable: annotationsTable,
		log:              log,
	}
}

// Resolve fetches the dossier matching email, completes it with the
// amounts of its annotation row, and returns the assembled record.
//
// The annotation lookup is best-effort: when the annotation table is
// empty, unreadable, or carries no matching row, the amounts default to
// "0" and resolution still succeeds. When several dossiers share the same
// email the first one in server order wins; duplicates are not detected.
func (s *ResolverService) Resolve(email string) (models.CaseRecord, error) {
	s.log.Debugw("recherche de dossier", "email", email)

	rows, err := s.tables.GetTableRows(s.projectsTable)
	if err != nil {
		return models.CaseRecord{}, err
	}

	if !hasColumn(rows, colEmail) {
		s.log.Warnw("colonne email absente", "table", s.projectsTable, "colonnes", columnNames(rows))
		return models.CaseRecord{}, &SchemaMismatchError{Column: colEmail}
	}

	caseRow, ok := firstRowWhere(rows, func(row models.RemoteRow) bool {
		v, _ := row.Fields[colEmail].(string)
		return v == email
	})
	if !ok {
		return models.CaseRecord{}, ErrNotFound
	}
	s.log.Debugw("dossier trouvé", "id", caseRow.ID)

	dracAmount, draafAmount := "0", "0"
	if annotation, found := s.findAnnotation(caseRow.ID); found {
		dracAmount = dracAmountSource.lookup(annotation.Fields)
		draafAmount = draafAmountSource.lookup(annotation.Fields)
		s.log.Debugw("montants trouvés", "drac", dracAmount, "draaf", draafAmount)
	} else {
		s.log.Debugw("aucune annotation trouvée, montants à 0", "dossier_id", caseRow.ID)
	}

	return models.CaseRecord{
		Name:         nameSource.lookup(caseRow.Fields),
		Email:        email, // la valeur recherchée fait foi, pas la cellule Grist
		ProjectTitle: projectTitleSource.lookup(caseRow.Fields),
		CaseNumber:   caseNumberSource.lookup(caseRow.Fields),
		DracAmount:   dracAmount,
		DraafAmount:  draafAmount,
	}, nil
}

// findAnnotation fetches the annotation table and returns the first row
// referencing caseID. The referencing column is discovered heuristically:
// the declared candidates are probed in order, then every column is
// scanned for a matching value, in sorted column order so the fallback
// stays reproducible. Any failure here is soft.
func (s *ResolverService) findAnnotation(caseID int64) (models.RemoteRow, bool) {
	rows, err := s.tables.GetTableRows(s.annotationsTable)
	if err != nil {
		s.log.Warnw("lecture des annotations impossible", "err", err)
		return models.RemoteRow{}, false
	}
	if len(rows) == 0 {
		s.log.Debugw("table des annotations vide")
		return models.RemoteRow{}, false
	}

	column := ""
	for _, candidate := range fkProbeColumns {
		if hasColumn(rows, candidate) {
			column = candidate
			break
		}
	}

	if column == "" {
		for _, candidate := range columnNames(rows) {
			if _, found := firstRowWhere(rows, func(row models.RemoteRow) bool {
				return matchesID(row.Fields[candidate], caseID)
			}); found {
				column = candidate
				s.log.Debugw("colonne de liaison devinée par valeur", "colonne", candidate)
				break
			}
		}
	}

	if column == "" {
		s.log.Warnw("colonne de référence au dossier introuvable", "colonnes", columnNames(rows))
		return models.RemoteRow{}, false
	}

	annotation, found := firstRowWhere(rows, func(row models.RemoteRow) bool {
		return matchesID(row.Fields[column], caseID)
	})
	if found {
		s.log.Debugw("annotation trouvée", "id", annotation.ID, "colonne", column)
	}
	return annotation, found
}

func firstRowWhere(rows []models.RemoteRow, match func(models.RemoteRow) bool) (models.RemoteRow, bool) {
	for _, row := range rows {
		if match(row) {
			return row, true
		}
	}
	return models.RemoteRow{}, false
}

func hasColumn(rows []models.RemoteRow, column string) bool {
	for _, row := range rows {
		if _, ok := row.Fields[column]; ok {
			return true
		}
	}
	return false
}

func columnNames(rows []models.RemoteRow) []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		for column := range row.Fields {
			if !seen[column] {
				seen[column] = true
				names = append(names, column)
			}
		}
	}
	sort.Strings(names)
	return names
}

// matchesID compares a raw cell against a row id, tolerating the numeric
// and string encodings Grist may use.
func matchesID(v any, id int64) bool {
	switch value := v.(type) {
	case float64:
		return value == float64(id)
	case int64:
		return value == id
	case int:
		return int64(value) == id
	case string:
		n, err := strconv.ParseInt(value, 10, 64)
		return err == nil && n == id
	default:
		return false
	}
}
