package objectstore

import (
	"go.uber.org/fx"

	"github.com/polkiloo/coursemart/internal/adapter/awsclient"
	"github.com/polkiloo/coursemart/internal/config"
)

// Module provides the object store used for payment proofs and invoice documents.
var Module = fx.Provide(newStore)

type storeParams struct {
	fx.In

	S3     awsclient.S3API
	Config *config.Config
}

func newStore(p storeParams) Store {
	return NewS3Store(p.S3, p.Config.StorageBucket, p.Config.StoragePublicURL)
}
