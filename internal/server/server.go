// Package server exposes the collection engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/collecta/internal/collection"
	collectiondomain "github.com/smallbiznis/collecta/internal/collection/domain"
	"github.com/smallbiznis/collecta/internal/config"
	"github.com/smallbiznis/collecta/internal/debtor"
	debtordomain "github.com/smallbiznis/collecta/internal/debtor/domain"
	"github.com/smallbiznis/collecta/internal/invoice"
	invoicedomain "github.com/smallbiznis/collecta/internal/invoice/domain"
	"github.com/smallbiznis/collecta/internal/scheduler"
	"github.com/smallbiznis/collecta/internal/sequence"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	debtor.Module,
	sequence.Module,
	invoice.Module,
	collection.Module,
	scheduler.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	debtorSvc     debtordomain.Service
	sequenceSvc   sequencedomain.Service
	invoiceSvc    invoicedomain.Service
	collectionSvc collectiondomain.Service
	scheduler     *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	DebtorSvc     debtordomain.Service
	SequenceSvc   sequencedomain.Service
	InvoiceSvc    invoicedomain.Service
	CollectionSvc collectiondomain.Service
	Scheduler     *scheduler.Scheduler
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		debtorSvc:     p.DebtorSvc,
		sequenceSvc:   p.SequenceSvc,
		invoiceSvc:    p.InvoiceSvc,
		collectionSvc: p.CollectionSvc,
		scheduler:     p.Scheduler,
	}

	svc.registerAPIRoutes()
	svc.registerInternalRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.OrgContext())

	// -------- Debtors --------
	api.GET("/debtors", s.ListDebtors)
	api.POST("/debtors", s.CreateDebtor)
	api.GET("/debtors/:id", s.GetDebtorByID)

	// -------- Sequences --------
	api.GET("/sequences", s.ListSequences)
	api.POST("/sequences", s.CreateSequence)
	api.GET("/sequences/:id", s.GetSequenceByID)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/sequence", s.AssignInvoiceSequence)
	api.POST("/invoices/:id/payments", s.RecordInvoicePayment)
	api.PATCH("/invoices/:id/settings", s.UpdateInvoiceSettings)
	api.POST("/invoices/:id/status", s.UpdateInvoiceStatus)
	api.GET("/invoices/:id/steps", s.ListInvoiceSteps)
	api.GET("/invoices/:id/actions", s.ListInvoiceActions)

	// -------- Scheduled steps --------
	api.GET("/steps", s.ListSteps)
	api.POST("/steps/:id/execute", s.ExecuteStep)
	// Retrying a failed step is the same operation as executing it.
	api.POST("/steps/:id/retry", s.ExecuteStep)
	api.POST("/steps/:id/skip", s.SkipStep)
	api.PATCH("/steps/:id", s.UpdateStep)
}

func (s *Server) registerInternalRoutes() {
	internal := s.engine.Group("/internal")
	internal.POST("/cron/run", s.CronAuthRequired(), s.RunCron)
}
