package memory

import (
	"github.com/viant/inputgate/model/run"
	"github.com/viant/inputgate/service/dao"
	"github.com/viant/inputgate/service/dao/store"
)

// New creates an in-memory run-record DAO keyed by record id.
func New() dao.Service[string, run.Record] {
	return store.NewMemoryStore[string, run.Record](func(r *run.Record) string { return r.ID })
}
