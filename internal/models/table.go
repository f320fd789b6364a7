package models

type TableDescriptor struct {
	ID string `json:"id"`
}

type ColumnDescriptor struct {
	ID string `json:"id"`
}
