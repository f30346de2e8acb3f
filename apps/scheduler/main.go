package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/collection"
	"github.com/smallbiznis/collecta/internal/config"
	"github.com/smallbiznis/collecta/internal/debtor"
	"github.com/smallbiznis/collecta/internal/invoice"
	"github.com/smallbiznis/collecta/internal/logger"
	"github.com/smallbiznis/collecta/internal/runlock"
	"github.com/smallbiznis/collecta/internal/scheduler"
	"github.com/smallbiznis/collecta/internal/sender"
	"github.com/smallbiznis/collecta/internal/sequence"
	"github.com/smallbiznis/collecta/pkg/db"
	"go.uber.org/fx"
)

// Standalone batch worker: no HTTP surface, just the periodic loop.
// Deploy it next to API-only instances of cmd/collecta.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		sender.Module,
		runlock.Module,

		// Domain services required by the batch
		debtor.Module,
		sequence.Module,
		invoice.Module,
		collection.Module,
		scheduler.Module,

		scheduler.Background,
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
