// Package catalogutils is the catalog utility package
package catalogutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/catalog"
	"github.com/marqueeco/marquee/pkg/catalog/inmemory"
	"github.com/marqueeco/marquee/pkg/catalog/sqlite"
)

type NewStoreOpts struct {
	Driver     string
	SQLitePath string
	Logger     *zap.Logger
}

func NewStore(o *NewStoreOpts) (catalog.Store, error) {
	switch o.Driver {
	case "memory":
		return inmemory.NewStore(), nil
	case "sqlite":
		path := o.SQLitePath
		if path == "" {
			path = ":memory:"
		}
		return sqlite.NewStore(sqlite.Config{DBPath: path}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported catalog driver: %s", o.Driver)
	}
}
