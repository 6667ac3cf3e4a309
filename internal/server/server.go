package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zenpay/zenpay/internal/config"
	customerdomain "github.com/zenpay/zenpay/internal/customer/domain"
	itemdomain "github.com/zenpay/zenpay/internal/item/domain"
	ledgerdomain "github.com/zenpay/zenpay/internal/ledger/domain"
	usagedomain "github.com/zenpay/zenpay/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	customerSvc customerdomain.Service
	itemSvc     itemdomain.Service
	ledgerSvc   ledgerdomain.Service
	usageSvc    usagedomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	CustomerSvc customerdomain.Service
	ItemSvc     itemdomain.Service
	LedgerSvc   ledgerdomain.Service
	UsageSvc    usagedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		log:         p.Log.Named("http.server"),
		genID:       p.GenID,
		customerSvc: p.CustomerSvc,
		itemSvc:     p.ItemSvc,
		ledgerSvc:   p.LedgerSvc,
		usageSvc:    p.UsageSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.APIKeyRequired())

	api.POST("/customers", s.UpsertCustomer)
	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)
	api.GET("/customers/:id/balance", s.GetBalance)
	api.GET("/customers/:id/ledger", s.GetLedgerHistory)

	api.POST("/items", s.CreateItem)
	api.GET("/items", s.ListItems)
	api.GET("/items/:code", s.GetItem)
	api.PATCH("/items/:code", s.UpdateItem)
	api.DELETE("/items/:code", s.DeleteItem)

	api.POST("/credits", s.AddCredit)

	api.POST("/usage", s.RecordUsage)
	api.GET("/usage", s.ListUsage)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
