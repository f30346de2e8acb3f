package debtor

import (
	"github.com/smallbiznis/collecta/internal/debtor/repository"
	"github.com/smallbiznis/collecta/internal/debtor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("debtor.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
