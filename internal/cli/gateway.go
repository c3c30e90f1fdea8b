package cli

import (
	"context"

	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/kagent-dev/zendesk-mcp/internal/aggregate"
	"github.com/kagent-dev/zendesk-mcp/internal/metrics"
	"github.com/kagent-dev/zendesk-mcp/pkg/config"
	"github.com/kagent-dev/zendesk-mcp/pkg/tools"
	"github.com/kagent-dev/zendesk-mcp/pkg/zendesk"
)

// gateway is the transport-independent core shared by every command
type gateway struct {
	config     *config.Config
	metrics    *metrics.Metrics
	client     *zendesk.Client
	dispatcher *tools.Dispatcher
}

// clientOptions lets tests point the client at a fake deployment
var clientOptions []zendesk.Option

func newGateway(ctx context.Context, cfg *config.Config) (*gateway, error) {
	log := ctrllog.FromContext(ctx).WithName("gateway")

	gw := &gateway{
		config:  cfg,
		metrics: metrics.New(),
	}

	// api stays an untyped nil without credentials so every tool reports
	// the configuration error.
	var api tools.API
	if cfg.HasCredentials() {
		opts := append([]zendesk.Option{
			zendesk.WithTimeout(cfg.Zendesk.Timeout),
			zendesk.WithSearchTimeout(cfg.Zendesk.SearchTimeout),
			zendesk.WithRateLimit(cfg.Zendesk.RequestsPerSecond),
			zendesk.WithRequestObserver(gw.metrics.ObserveRemote),
		}, clientOptions...)

		client, err := zendesk.NewClient(zendesk.Credentials{
			Subdomain: cfg.Zendesk.Subdomain,
			Email:     cfg.Zendesk.Email,
			APIToken:  cfg.Zendesk.APIToken,
		}, opts...)
		if err != nil {
			return nil, err
		}
		gw.client = client
		api = client
		log.Info("Zendesk client configured", "origin", client.Origin())
	} else {
		log.Info("Zendesk credentials missing, tools will report a configuration error",
			"missing", cfg.MissingCredentials())
	}

	registry := tools.NewRegistry()
	err := tools.RegisterZendesk(registry, api, tools.ZendeskOptions{
		PublicDomain: cfg.Zendesk.PublicDomain,
		MaxPages:     cfg.Zendesk.MaxPages,
		Enrichment: aggregate.EnrichOptions{
			CandidateCap:   cfg.Enrichment.CandidateCap,
			ResultCap:      cfg.Enrichment.ResultCap,
			MaxConcurrency: cfg.Enrichment.MaxConcurrency,
		},
	})
	if err != nil {
		return nil, err
	}

	gw.dispatcher = tools.NewDispatcher(registry, tools.WithMetrics(gw.metrics))
	log.V(1).Info("Registered tools", "count", registry.Len())
	return gw, nil
}
