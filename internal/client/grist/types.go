package grist

type recordEnvelope struct {
	ID     int64          `json:"id"`
	Fields map[string]any `json:"fields"`
}

type columnsResponse struct {
	Columns []columnEnvelope `json:"columns"`
}

type columnEnvelope struct {
	ID string `json:"id"`
}
