package main

import (
	"context"

	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/topology"
	"github.com/spf13/cobra"
)

type plannedSection struct {
	Name      string       `json:"name"`
	EventType string       `json:"eventType,omitempty"`
	Section   meta.Section `json:"section"`
}

type plan struct {
	Endpoint     string           `json:"endpoint"`
	LocalAddress string           `json:"localAddress"`
	Sections     []plannedSection `json:"sections"`
}

func newPlanCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the sections the endpoint resolves to",
		Long: `Resolve the entities the endpoint owns, the queue it receives from, the topic
it publishes to and the subscriptions for every --event, without touching a broker.

Examples:
  roost plan -c roost.yaml
  roost plan -c roost.yaml -e sales.OrderAccepted -p sales.OrderAccepted=sales -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validateFormat(); err != nil {
				return err
			}
			h, err := flags.settings()
			if err != nil {
				return err
			}
			publishers, err := flags.publisherLookup()
			if err != nil {
				return err
			}
			manager, err := topology.New("", h, topology.WithPublishers(publishers))
			if err != nil {
				return err
			}
			p, err := resolvePlan(cmd.Context(), manager, flags.eventTypes())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), flags.format, p, nil)
		},
	}
}

func resolvePlan(ctx context.Context, manager *topology.Manager, events []meta.EventType) (*plan, error) {
	p := &plan{Endpoint: manager.Endpoint(), LocalAddress: manager.LocalAddress()}

	owned, err := manager.DetermineResourcesToCreate()
	if err != nil {
		return nil, err
	}
	receiving, err := manager.DetermineReceiveResources(manager.LocalAddress())
	if err != nil {
		return nil, err
	}
	publishing, err := manager.DeterminePublishDestination(meta.EventType{})
	if err != nil {
		return nil, err
	}
	p.Sections = append(p.Sections,
		plannedSection{Name: "create", Section: owned},
		plannedSection{Name: "receive", Section: receiving},
		plannedSection{Name: "publish", Section: publishing},
	)

	for _, eventType := range events {
		section, err := manager.DetermineResourcesToSubscribeTo(ctx, eventType)
		if err != nil {
			return nil, err
		}
		p.Sections = append(p.Sections, plannedSection{Name: "subscribe", EventType: eventType.FullName(), Section: section})
	}
	return p, nil
}
