package usage

import (
	"github.com/zenpay/zenpay/internal/usage/repository"
	"github.com/zenpay/zenpay/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
