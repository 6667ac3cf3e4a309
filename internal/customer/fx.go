package customer

import (
	"github.com/zenpay/zenpay/internal/customer/repository"
	"github.com/zenpay/zenpay/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
