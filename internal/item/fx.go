package item

import (
	"github.com/zenpay/zenpay/internal/item/repository"
	"github.com/zenpay/zenpay/internal/item/service"
	"go.uber.org/fx"
)

var Module = fx.Module("item",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
