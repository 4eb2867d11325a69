package campaign

import (
	campaigndomain "github.com/smallbiznis/retainly/internal/campaign/domain"
	"github.com/smallbiznis/retainly/internal/campaign/sendlog"
	"github.com/smallbiznis/retainly/internal/campaign/service"
	"github.com/smallbiznis/retainly/internal/cache"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign",
	fx.Provide(func() (*campaigndomain.Registry, error) {
		return campaigndomain.NewRegistry(campaigndomain.ShippedCampaigns()...)
	}),
	fx.Provide(func() cache.Cache[string, campaigndomain.Report] {
		return cache.NewTTLCache[string, campaigndomain.Report]()
	}),
	fx.Provide(sendlog.New),
	fx.Provide(service.NewEngine),
)
