package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/config"
	"github.com/smallbiznis/collecta/internal/logger"
	"github.com/smallbiznis/collecta/internal/migration"
	"github.com/smallbiznis/collecta/internal/runlock"
	"github.com/smallbiznis/collecta/internal/scheduler"
	"github.com/smallbiznis/collecta/internal/sender"
	"github.com/smallbiznis/collecta/internal/server"
	"github.com/smallbiznis/collecta/pkg/db"
	"go.uber.org/fx"
)

// The monolith serves the HTTP API and runs the collection batch loop
// in one process.
func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		sender.Module,
		runlock.Module,
		migration.Module,

		server.Module,
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
