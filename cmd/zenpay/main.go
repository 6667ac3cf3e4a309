package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/zenpay/zenpay/internal/billingsync"
	"github.com/zenpay/zenpay/internal/config"
	"github.com/zenpay/zenpay/internal/customer"
	"github.com/zenpay/zenpay/internal/item"
	"github.com/zenpay/zenpay/internal/ledger"
	"github.com/zenpay/zenpay/internal/logger"
	"github.com/zenpay/zenpay/internal/migration"
	"github.com/zenpay/zenpay/internal/observability/metrics"
	"github.com/zenpay/zenpay/internal/server"
	"github.com/zenpay/zenpay/internal/usage"
	"github.com/zenpay/zenpay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		customer.Module,
		item.Module,
		ledger.Module,
		usage.Module,
		billingsync.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
