// Package sessionutils is the session utility package
package sessionutils

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/marqueeco/marquee/pkg/session"
	"github.com/marqueeco/marquee/pkg/session/local"
	"github.com/marqueeco/marquee/pkg/session/redis"
)

type NewStoreOpts struct {
	StoreType string
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	Logger    *zap.Logger
}

func NewStore(ctx context.Context, o *NewStoreOpts) (session.Store, error) {
	switch o.StoreType {
	case "local":
		return local.NewStore(o.TTL), nil
	case "redis":
		return redis.NewStore(ctx, &redis.NewStoreOpts{
			Addr:     o.Addr,
			Password: o.Password,
			DB:       o.DB,
			TTL:      o.TTL,
			Logger:   o.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported session store: %s", o.StoreType)
	}
}
