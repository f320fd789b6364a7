package demarches

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BilanDracDraaf/grist-prefill/internal/mapping"
)

// ErrMissingCredential is returned before any network call when no API
// token is configured.
var ErrMissingCredential = errors.New("Token API non trouvé. Vérifiez votre fichier .env")

// APIError is any non-201 answer from the prefill API, carrying the raw
// response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return "Erreur API DS: " + e.Body
}

// TransportError is a network-level failure reaching the prefill API.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "Exception: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GeneratePrefilledURL creates a pre-filled dossier on Démarches
// Simplifiées and returns its deep link. Each mapped field is sent as a
// "champ_<id>" key. Success is exactly HTTP 201.
func (c *Client) GeneratePrefilledURL(fields mapping.MappedFields, demarcheID string) (string, error) {
	if c.token == "" {
		return "", ErrMissingCredential
	}

	payload := make(map[string]string, len(fields))
	for fieldID, value := range fields {
		payload["champ_"+fieldID] = value
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal dossier request (ds): %w", err)
	}

	url := c.baseURL + "/demarches/" + demarcheID + "/dossiers"
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("build request (ds): %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusCreated {
		return "", &APIError{Status: resp.StatusCode, Body: string(responseBody)}
	}

	var created createDossierResponse
	if err := json.Unmarshal(responseBody, &created); err != nil {
		return "", &TransportError{Err: fmt.Errorf("parse dossier response (ds): %w", err)}
	}

	// A 201 without dossier_url yields an empty link. Kept as-is: the API
	// has never been seen doing this and the right reaction is unclear.
	return created.DossierURL, nil
}
