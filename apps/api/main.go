package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/config"
	"github.com/smallbiznis/collecta/internal/logger"
	"github.com/smallbiznis/collecta/internal/migration"
	"github.com/smallbiznis/collecta/internal/runlock"
	"github.com/smallbiznis/collecta/internal/sender"
	"github.com/smallbiznis/collecta/internal/server"
	"github.com/smallbiznis/collecta/pkg/db"
	"go.uber.org/fx"
)

// API-only deployment: no background loop. Batch cycles are triggered
// through POST /internal/cron/run by an external cron.
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
