package models

// RemoteRow is one record of a Grist table: the raw field map as returned
// by the API, with the row id attached verbatim. Rows are never cached;
// every resolution re-fetches them.
type RemoteRow struct {
	ID     int64
	Fields map[string]any
}

// CaseRecord is the normalized dossier assembled from a case row and its
// annotation row. Email always carries the value the caller searched for,
// never a value read back from Grist. Amounts are kept as strings because
// that is what the prefill API expects.
type CaseRecord struct {
	Name         string `json:"Nom"`
	Email        string `json:"Email"`
	ProjectTitle string `json:"Titre_du_projet"`
	CaseNumber   string `json:"Numero_dossier"`
	DracAmount   string `json:"Montant_DRAC"`
	DraafAmount  string `json:"Montant_DRAAF"`
}
