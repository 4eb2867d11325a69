package event

import (
	"github.com/smallbiznis/retainly/internal/event/repository"
	"github.com/smallbiznis/retainly/internal/event/service"
	"go.uber.org/fx"
)

var Module = fx.Module("event",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
