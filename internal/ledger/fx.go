package ledger

import (
	"github.com/zenpay/zenpay/internal/ledger/repository"
	"github.com/zenpay/zenpay/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
