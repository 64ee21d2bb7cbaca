package main

import (
	"fmt"
	"strings"

	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/settings"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config     string
	events     []string
	publishers []string
	format     string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "roost",
		Short: "Inspect and provision the broker topology of an endpoint",
		Long: `roost resolves the queues, topics and subscriptions an endpoint needs.

Available commands:
  plan         Print the sections the endpoint resolves to
  provision    Create the topology against in-memory namespaces and report the outcome
  send         Send one message through watermill or NATS and report where it arrived

The endpoint comes from the file given with --config and from ROOST_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "path to the YAML configuration file")
	pf.StringSliceVarP(&flags.events, "event", "e", nil, "qualified event type to subscribe to, repeatable")
	pf.StringSliceVarP(&flags.publishers, "publisher", "p", nil, "publisher of an event type as <event type>=<endpoint>, repeatable")
	pf.StringVarP(&flags.format, "format", "o", "tree", "output format: tree or json")

	cmd.AddCommand(newPlanCmd(flags), newProvisionCmd(flags), newSendCmd(flags))
	return cmd
}

func (f *rootFlags) settings() (*settings.Holder, error) {
	cfg, err := settings.Load(f.config)
	if err != nil {
		return nil, err
	}
	return settings.New(cfg.Options()...)
}

func (f *rootFlags) eventTypes() []meta.EventType {
	events := make([]meta.EventType, 0, len(f.events))
	for _, e := range f.events {
		events = append(events, meta.ParseEventType(e))
	}
	return events
}

func (f *rootFlags) publisherLookup() (api.StaticPublishers, error) {
	publishers := api.StaticPublishers{}
	for _, p := range f.publishers {
		eventType, endpoint, ok := strings.Cut(p, "=")
		if !ok || eventType == "" || endpoint == "" {
			return nil, fmt.Errorf("invalid publisher %q, expected <event type>=<endpoint>", p)
		}
		publishers[eventType] = append(publishers[eventType], endpoint)
	}
	return publishers, nil
}

func (f *rootFlags) validateFormat() error {
	switch f.format {
	case "tree", "json":
		return nil
	default:
		return fmt.Errorf("unknown format %q, expected tree or json", f.format)
	}
}
