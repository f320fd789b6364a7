package demarches

type createDossierResponse struct {
	DossierURL string `json:"dossier_url"`
	DossierID  string `json:"dossier_id"`
}
