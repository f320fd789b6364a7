package grist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BilanDracDraaf/grist-prefill/internal/models"
)

// ErrDocIDMissing is reported, wrapped in a RemoteServiceError and before
// any network call, when the client was built without a document id.
var ErrDocIDMissing = errors.New("L'ID du document Grist est requis")

// RemoteServiceError covers every failure of the table service: transport,
// non-200 status, or an unexpected body shape. The message is safe to show
// to the user as-is.
type RemoteServiceError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Erreur Grist (%s): statut %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("Erreur Grist (%s): %v", e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

type Client struct {
	baseURL    string
	apiKey     string
	docID      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, docID string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		docID:      docID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(op, path string) ([]byte, error) {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request (grist): %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteServiceError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteServiceError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// ListTables lists the tables of the configured document. The API has been
// seen answering with either a bare list or an object carrying a "tables"
// key; both shapes are normalized here.
func (c *Client) ListTables() ([]models.TableDescriptor, error) {
	if c.docID == "" {
		return nil, &RemoteServiceError{Op: "list tables", Err: ErrDocIDMissing}
	}

	body, err := c.get("list tables", "/docs/"+c.docID+"/tables")
	if err != nil {
		return nil, err
	}

	return normalizeTableList("list tables", body)
}

// normalizeTableList accepts a bare list, an object with a "tables" or
// "docs" key, or a single object without either (treated as a one-item
// list, so a permissive schema does not turn into a spurious failure).
func normalizeTableList(op string, body []byte) ([]models.TableDescriptor, error) {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &RemoteServiceError{Op: op, Err: err}
	}

	var items []any
	switch v := payload.(type) {
	case []any:
		items = v
	case map[string]any:
		if tables, ok := v["tables"].([]any); ok {
			items = tables
		} else if docs, ok := v["docs"].([]any); ok {
			items = docs
		} else {
			items = []any{v}
		}
	default:
		return nil, &RemoteServiceError{Op: op, Err: fmt.Errorf("format de données inattendu: %s", body)}
	}

	tables := make([]models.TableDescriptor, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		tables = append(tables, models.TableDescriptor{ID: id})
	}
	return tables, nil
}

// GetTableRows fetches every record of a table, in server order. Each row
// carries a copy of the record's field map plus its id. Records without a
// "fields" key are skipped.
func (c *Client) GetTableRows(tableID string) ([]models.RemoteRow, error) {
	op := "get records " + tableID
	if c.docID == "" {
		return nil, &RemoteServiceError{Op: op, Err: ErrDocIDMissing}
	}

	body, err := c.get(op, "/docs/"+c.docID+"/tables/"+tableID+"/records")
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &RemoteServiceError{Op: op, Err: err}
	}

	raw, ok := payload["records"]
	if !ok {
		return nil, &RemoteServiceError{Op: op, Err: fmt.Errorf("format de données inattendu: %s", body)}
	}

	var records []recordEnvelope
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &RemoteServiceError{Op: op, Err: err}
	}

	rows := make([]models.RemoteRow, 0, len(records))
	for _, record := range records {
		if record.Fields == nil {
			continue
		}
		fields := make(map[string]any, len(record.Fields))
		for k, v := range record.Fields {
			fields[k] = v
		}
		rows = append(rows, models.RemoteRow{ID: record.ID, Fields: fields})
	}
	return rows, nil
}

// GetTableColumns returns the column ids of a table. Used by the
// diagnostics surface to show a table's structure.
func (c *Client) GetTableColumns(tableID string) ([]models.ColumnDescriptor, error) {
	op := "get columns " + tableID
	if c.docID == "" {
		return nil, &RemoteServiceError{Op: op, Err: ErrDocIDMissing}
	}

	body, err := c.get(op, "/docs/"+c.docID+"/tables/"+tableID+"/columns")
	if err != nil {
		return nil, err
	}

	var payload columnsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &RemoteServiceError{Op: op, Err: err}
	}
	if payload.Columns == nil {
		return nil, &RemoteServiceError{Op: op, Err: fmt.Errorf("format de données inattendu: %s", body)}
	}

	columns := make([]models.ColumnDescriptor, 0, len(payload.Columns))
	for _, col := range payload.Columns {
		columns = append(columns, models.ColumnDescriptor{ID: col.ID})
	}
	return columns, nil
}
