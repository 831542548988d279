package fx

import (
	"cs2-tracker/internal/api"
	"cs2-tracker/internal/bot"
	"cs2-tracker/internal/config"
	"cs2-tracker/internal/logger"
	"cs2-tracker/internal/repository"
	"cs2-tracker/internal/server"
	"cs2-tracker/internal/service"

	"go.uber.org/fx"
)

func ProvideBotDeps(roster *service.RosterService, stats *service.StatsService) (bot.RosterFetcher, bot.StatsAggregator) {
	return roster, stats
}

func ProvideServerDeps(roster *service.RosterService, stats *service.StatsService) (server.RosterFetcher, server.StatsAggregator) {
	return roster, stats
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	// roster source
	fx.Provide(repository.NewEndpointSource),
	// api clients
	fx.Provide(fx.Annotate(api.NewA2SProber, fx.As(new(service.Prober)))),
	fx.Provide(fx.Annotate(api.NewFaceitClient, fx.As(new(service.StatsAPI)))),
	// svc
	fx.Provide(service.NewRosterService),
	fx.Provide(service.NewStatsService),
	// surfaces
	fx.Provide(ProvideBotDeps),
	fx.Provide(ProvideServerDeps),
	fx.Provide(bot.New),
	fx.Provide(server.New),
)
