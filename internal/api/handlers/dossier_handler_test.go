package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BilanDracDraaf/grist-prefill/internal/mapping"
	"github.com/BilanDracDraaf/grist-prefill/internal/models"
	"github.com/BilanDracDraaf/grist-prefill/internal/service"
	"github.com/BilanDracDraaf/grist-prefill/internal/session"
)

const (
	projectsTable    = "Demarche_87698_dossiers"
	annotationsTable = "Demarche_87698_annotations"
)

type fakeTableReader struct {
	rows  map[string][]models.RemoteRow
	calls int
}

func (f *fakeTableReader) GetTableRows(tableID string) ([]models.RemoteRow, error) {
	f.calls++
	return f.rows[tableID], nil
}

type fakePrefiller struct {
	url   string
	err   error
	calls int
}

func (f *fakePrefiller) GeneratePrefilledURL(fields mapping.MappedFields, demarcheID string) (string, error) {
	f.calls++
	return f.url, f.err
}

func newHandler(reader *fakeTableReader, prefiller *fakePrefiller) (*DossierHandler, *session.Store) {
	nop := zap.NewNop().Sugar()
	resolver := service.NewResolverService(reader, projectsTable, annotationsTable, nop)
	prefill := service.NewPrefillService(prefiller, "111570", nop)
	sessions := session.NewStore()
	return NewDossierHandler(resolver, prefill, sessions, nop), sessions
}

func fixtureRows() map[string][]models.RemoteRow {
	return map[string][]models.RemoteRow{
		projectsTable: {
			{ID: 7, Fields: map[string]any{
				"usager_email":      "a@b.com",
				"A_titre_du_projet": "Proj X",
				"N_dossier":         "D1",
			}},
		},
		annotationsTable: {
			{ID: 3, Fields: map[string]any{
				"dossier_id":    float64(7),
				"montant_drac":  float64(1000),
				"montant_draaf": float64(500),
			}},
		},
	}
}

func doSearch(h *DossierHandler, sessionID, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest("POST", "/sessions/"+sessionID+"/search", strings.NewReader(body))
	r.SetPathValue("id", sessionID)
	w := httptest.NewRecorder()
	h.Search(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestCreateSession(t *testing.T) {
	h, _ := newHandler(&fakeTableReader{}, &fakePrefiller{})

	w := httptest.NewRecorder()
	h.CreateSession(w, httptest.NewRequest("POST", "/sessions", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["session_id"])
}

func TestSearch(t *testing.T) {
	t.Run("success loads record and checklist", func(t *testing.T) {
		reader := &fakeTableReader{rows: fixtureRows()}
		h, sessions := newHandler(reader, &fakePrefiller{})
		id := sessions.Create()

		w := doSearch(h, id, `{"email": "a@b.com"}`)
		require.Equal(t, http.StatusOK, w.Code)

		payload := decodeBody(t, w)
		dossier := payload["dossier"].(map[string]any)
		assert.Equal(t, "a@b.com", dossier["Email"])
		assert.Equal(t, "Proj X", dossier["Titre_du_projet"])
		assert.Equal(t, "1000", dossier["Montant_DRAC"])
		assert.Empty(t, payload["champs_manquants"])

		state, _ := sessions.Snapshot(id)
		require.NotNil(t, state.Record)
		assert.Equal(t, "D1", state.Record.CaseNumber)
	})

	t.Run("empty email rejected before Grist", func(t *testing.T) {
		reader := &fakeTableReader{rows: fixtureRows()}
		h, sessions := newHandler(reader, &fakePrefiller{})
		id := sessions.Create()

		w := doSearch(h, id, `{"email": ""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, reader.calls)
	})

	t.Run("malformed email rejected before Grist", func(t *testing.T) {
		reader := &fakeTableReader{rows: fixtureRows()}
		h, sessions := newHandler(reader, &fakePrefiller{})
		id := sessions.Create()

		w := doSearch(h, id, `{"email": "not-an-email"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Format d'email invalide", decodeBody(t, w)["error"])
		assert.Zero(t, reader.calls)
	})

	t.Run("no matching dossier", func(t *testing.T) {
		h, sessions := newHandler(&fakeTableReader{rows: fixtureRows()}, &fakePrefiller{})
		id := sessions.Create()

		w := doSearch(h, id, `{"email": "inconnu@b.com"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Aucun dossier trouvé avec cet email.", decodeBody(t, w)["error"])
	})

	t.Run("schema mismatch", func(t *testing.T) {
		reader := &fakeTableReader{rows: map[string][]models.RemoteRow{
			projectsTable: {{ID: 1, Fields: map[string]any{"mail": "a@b.com"}}},
		}}
		h, sessions := newHandler(reader, &fakePrefiller{})
		id := sessions.Create()

		w := doSearch(h, id, `{"email": "a@b.com"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown session", func(t *testing.T) {
		h, _ := newHandler(&fakeTableReader{}, &fakePrefiller{})

		w := doSearch(h, "nope", `{"email": "a@b.com"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Session inconnue", decodeBody(t, w)["error"])
	})
}

func TestGeneratePrefill(t *testing.T) {
	t.Run("full flow", func(t *testing.T) {
		prefiller := &fakePrefiller{url: "https://x/y"}
		h, sessions := newHandler(&fakeTableReader{rows: fixtureRows()}, prefiller)
		id := sessions.Create()

		require.Equal(t, http.StatusOK, doSearch(h, id, `{"email": "a@b.com"}`).Code)

		r := httptest.NewRequest("POST", "/sessions/"+id+"/prefill", nil)
		r.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.GeneratePrefill(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://x/y", decodeBody(t, w)["dossier_url"])

		state, _ := sessions.Snapshot(id)
		assert.Equal(t, "https://x/y", state.DossierURL)
	})

	t.Run("refused while record incomplete", func(t *testing.T) {
		prefiller := &fakePrefiller{url: "https://x/y"}
		h, sessions := newHandler(&fakeTableReader{}, prefiller)
		id := sessions.Create() // aucune recherche effectuée

		r := httptest.NewRequest("POST", "/sessions/"+id+"/prefill", nil)
		r.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.GeneratePrefill(w, r)

		require.Equal(t, http.StatusConflict, w.Code)
		payload := decodeBody(t, w)
		missing := payload["champs_manquants"].([]any)
		assert.Equal(t, "Email", missing[0])
		assert.Len(t, missing, 5)
		assert.Zero(t, prefiller.calls)
	})

	t.Run("upstream API failure", func(t *testing.T) {
		prefiller := &fakePrefiller{err: errors.New("Erreur API DS: boom")}
		h, sessions := newHandler(&fakeTableReader{rows: fixtureRows()}, prefiller)
		id := sessions.Create()
		doSearch(h, id, `{"email": "a@b.com"}`)

		r := httptest.NewRequest("POST", "/sessions/"+id+"/prefill", nil)
		r.SetPathValue("id", id)
		w := httptest.NewRecorder()
		h.GeneratePrefill(w, r)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestGetSessionAndResetLink(t *testing.T) {
	prefiller := &fakePrefiller{url: "https://x/y"}
	h, sessions := newHandler(&fakeTableReader{rows: fixtureRows()}, prefiller)
	id := sessions.Create()

	// Session vierge: pas de dossier, tous les champs manquants.
	r := httptest.NewRequest("GET", "/sessions/"+id, nil)
	r.SetPathValue("id", id)
	w := httptest.NewRecorder()
	h.GetSession(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	payload := decodeBody(t, w)
	assert.Nil(t, payload["dossier"])
	assert.Len(t, payload["champs_manquants"].([]any), 5)

	doSearch(h, id, `{"email": "a@b.com"}`)
	sessions.SetURL(id, "https://x/y")

	// "Générer un nouveau lien" ne touche pas au dossier.
	r = httptest.NewRequest("DELETE", "/sessions/"+id+"/link", nil)
	r.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.ResetLink(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)

	r = httptest.NewRequest("GET", "/sessions/"+id, nil)
	r.SetPathValue("id", id)
	w = httptest.NewRecorder()
	h.GetSession(w, r)
	payload = decodeBody(t, w)
	assert.Equal(t, "", payload["dossier_url"])
	require.NotNil(t, payload["dossier"])
	assert.Empty(t, payload["champs_manquants"])
}
