package client

import (
	"github.com/BilanDracDraaf/grist-prefill/internal/mapping"
	"github.com/BilanDracDraaf/grist-prefill/internal/models"
)

type TableLister interface {
	ListTables() ([]models.TableDescriptor, error)
}

type TableReader interface {
	GetTableRows(tableID string) ([]models.RemoteRow, error)
}

type ColumnLister interface {
	GetTableColumns(tableID string) ([]models.ColumnDescriptor, error)
}

type PrefillGenerator interface {
	GeneratePrefilledURL(fields mapping.MappedFields, demarcheID string) (string, error)
}

type TableProvider interface {
	TableLister
	TableReader
	ColumnLister
}
