package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/casualjim/roost"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/internal/broker"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type provisionReport struct {
	Plan            *plan              `json:"plan"`
	Entities        entityStatus       `json:"entities"`
	Reconciliations map[string]float64 `json:"reconciliations"`
}

func newProvisionCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create the topology against in-memory namespaces and report the outcome",
		Long: `Start the endpoint against in-memory namespaces, subscribe to every --event and
report which entities exist afterwards together with the reconciliation outcomes.
The topics of the endpoints named with --publisher are provisioned first.

Examples:
  roost provision -c roost.yaml -e sales.OrderAccepted -p sales.OrderAccepted=sales`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validateFormat(); err != nil {
				return err
			}
			cfg, err := settings.Load(flags.config)
			if err != nil {
				return err
			}
			publishers, err := flags.publisherLookup()
			if err != nil {
				return err
			}
			report, err := provision(cmd.Context(), cfg, publishers, flags)
			if err != nil {
				return err
			}
			return renderReport(cmd.OutOrStdout(), flags.format, report)
		},
	}
}

func provision(ctx context.Context, cfg *settings.Config, publishers api.StaticPublishers, flags *rootFlags) (*provisionReport, error) {
	namespaces := broker.NewNamespaces()
	open := func(endpoint string) (*roost.Transport, error) {
		h, err := settings.New(append(cfg.Options(), settings.EndpointName(endpoint))...)
		if err != nil {
			return nil, err
		}
		return roost.New(endpoint, h,
			roost.WithNamespaceManagers(namespaces),
			roost.WithSenderFactory(namespaces),
			roost.WithPublisherLookup(publishers),
		)
	}

	var others []string
	for _, endpoints := range publishers {
		for _, endpoint := range endpoints {
			if endpoint != cfg.Endpoint && !slices.Contains(others, endpoint) {
				others = append(others, endpoint)
			}
		}
	}
	slices.Sort(others)
	for _, endpoint := range others {
		t, err := open(endpoint)
		if err != nil {
			return nil, err
		}
		err = t.Start(ctx)
		_ = t.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to provision publisher %s: %w", endpoint, err)
		}
	}

	transport, err := open(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	defer transport.Close()

	if err := transport.Start(ctx); err != nil {
		return nil, err
	}
	events := flags.eventTypes()
	for _, eventType := range events {
		if err := transport.Subscribe(ctx, eventType); err != nil {
			return nil, err
		}
	}

	p, err := resolvePlan(ctx, transport.Topology(), events)
	if err != nil {
		return nil, err
	}
	status, err := inspect(ctx, namespaces, p)
	if err != nil {
		return nil, err
	}
	counts, err := reconciliations(transport.PrometheusCollectors())
	if err != nil {
		return nil, err
	}
	return &provisionReport{Plan: p, Entities: status, Reconciliations: counts}, nil
}

func inspect(ctx context.Context, namespaces *broker.Namespaces, p *plan) (entityStatus, error) {
	status := entityStatus{}
	for _, ps := range p.Sections {
		for _, e := range ps.Section.Entities {
			ns := namespaces.Namespace(e.Namespace)
			var (
				exists bool
				err    error
			)
			if e.Kind == meta.Topic {
				exists, err = ns.TopicExists(ctx, e.Path)
			} else {
				exists, err = ns.QueueExists(ctx, e.Path)
			}
			if err != nil {
				return nil, err
			}
			status[statusKey(e.Namespace, e.Kind, e.Path)] = exists
		}
		for _, sub := range ps.Section.Subscriptions {
			topic, ok := ps.Section.TopicFor(sub)
			if !ok {
				continue
			}
			exists, err := namespaces.Namespace(sub.Namespace).SubscriptionExists(ctx, topic.Path, sub.Path)
			if err != nil {
				return nil, err
			}
			status[statusKey(sub.Namespace, sub.Kind, subscriptionPath(topic, sub))] = exists
		}
	}
	return status, nil
}

// reconciliations sums the reconciliation counter per kind and outcome.
func reconciliations(collectors []prometheus.Collector) (map[string]float64, error) {
	reg := prometheus.NewRegistry()
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}

	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "roost_creation_reconciliations_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var kind, outcome string
			for _, l := range m.GetLabel() {
				switch l.GetName() {
				case "kind":
					kind = l.GetValue()
				case "outcome":
					outcome = l.GetValue()
				}
			}
			counts[kind+"/"+outcome] += m.GetCounter().GetValue()
		}
	}
	return counts, nil
}

func renderReport(w io.Writer, format string, report *provisionReport) error {
	if format == "json" {
		return renderJSON(w, report)
	}
	renderTree(w, report.Plan, report.Entities)
	renderCounts(w, "reconciliations", report.Reconciliations)
	return nil
}
