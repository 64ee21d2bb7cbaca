package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/casualjim/roost"
	"github.com/casualjim/roost/api"
	"github.com/casualjim/roost/internal/broker"
	"github.com/casualjim/roost/meta"
	"github.com/casualjim/roost/pkg/natsx"
	"github.com/casualjim/roost/sending"
	"github.com/casualjim/roost/settings"
	"github.com/casualjim/roost/topology"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
)

const natsDrainTimeout = 100 * time.Millisecond

type sendFlags struct {
	to      string
	publish string
	body    string
	headers []string
	via     string
}

type delivery struct {
	Path       string            `json:"path"`
	MessageID  string            `json:"messageId"`
	Properties map[string]string `json:"properties,omitempty"`
	Body       string            `json:"body"`
}

type sendReport struct {
	Endpoint   string     `json:"endpoint"`
	Via        string     `json:"via"`
	Routing    string     `json:"routing"`
	Deliveries []delivery `json:"deliveries"`
}

// wire is the sending side of a transport together with a tap on the
// destination paths. finish releases it and returns what the tap saw.
type wire struct {
	option roost.Option
	finish func() ([]delivery, error)
}

func newSendCmd(flags *rootFlags) *cobra.Command {
	sf := &sendFlags{}
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message through watermill or NATS and report where it arrived",
		Long: `Send a message to the input queue of --to, or publish it as --publish, and
report the messages that arrived on the destination entities.

With --via watermill the message goes through an in-process watermill pub/sub.
With --via nats it is published on the server in NATS_URL, using the entity path
as subject.

Examples:
  roost send -c roost.yaml --to shipping --body '{"id":1}' -H tenant=acme
  roost send -c roost.yaml --publish sales.OrderAccepted --body '{"id":1}' --via nats`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := flags.validateFormat(); err != nil {
				return err
			}
			if err := sf.validate(); err != nil {
				return err
			}
			h, err := flags.settings()
			if err != nil {
				return err
			}
			report, err := send(cmd.Context(), h, sf)
			if err != nil {
				return err
			}
			return renderSendReport(cmd.OutOrStdout(), flags.format, report)
		},
	}

	f := cmd.Flags()
	f.StringVar(&sf.to, "to", "", "endpoint whose input queue receives the message")
	f.StringVar(&sf.publish, "publish", "", "qualified event type to publish the message as")
	f.StringVar(&sf.body, "body", "", "message body")
	f.StringSliceVarP(&sf.headers, "header", "H", nil, "message header as <name>=<value>, repeatable")
	f.StringVar(&sf.via, "via", "watermill", "sending transport: watermill or nats")
	return cmd
}

func (f *sendFlags) validate() error {
	if (f.to == "") == (f.publish == "") {
		return errors.New("exactly one of --to or --publish is required")
	}
	switch f.via {
	case "watermill", "nats":
		return nil
	default:
		return fmt.Errorf("unknown transport %q, expected watermill or nats", f.via)
	}
}

func (f *sendFlags) dispatchOptions() sending.DispatchOptions {
	if f.to != "" {
		return sending.SendTo(f.to)
	}
	return sending.PublishOf(meta.ParseEventType(f.publish))
}

func (f *sendFlags) message() (sending.OutgoingMessage, error) {
	msg := sending.OutgoingMessage{Headers: map[string]string{}, Body: []byte(f.body)}
	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, "=")
		if !ok || name == "" {
			return msg, fmt.Errorf("invalid header %q, expected <name>=<value>", h)
		}
		msg.Headers[name] = value
	}
	return msg, nil
}

func send(ctx context.Context, h *settings.Holder, f *sendFlags) (*sendReport, error) {
	msg, err := f.message()
	if err != nil {
		return nil, err
	}
	options := f.dispatchOptions()

	paths, err := destinationPaths(h, options.Routing)
	if err != nil {
		return nil, err
	}

	var w *wire
	if f.via == "nats" {
		w, err = natsWire(paths)
	} else {
		w, err = watermillWire(ctx, paths)
	}
	if err != nil {
		return nil, err
	}

	transport, err := roost.New("", h, w.option)
	if err != nil {
		_, _ = w.finish()
		return nil, err
	}
	sendErr := transport.Dispatch(ctx, []sending.OutgoingMessage{msg}, options)
	_ = transport.Close()
	deliveries, err := w.finish()
	if sendErr != nil {
		return nil, sendErr
	}
	if err != nil {
		return nil, err
	}

	return &sendReport{
		Endpoint:   transport.Endpoint(),
		Via:        f.via,
		Routing:    options.Routing.String(),
		Deliveries: deliveries,
	}, nil
}

// destinationPaths lists the distinct entity paths the routing resolves to.
func destinationPaths(h *settings.Holder, routing sending.Routing) ([]string, error) {
	manager, err := topology.New("", h)
	if err != nil {
		return nil, err
	}
	var section meta.Section
	switch routing := routing.(type) {
	case sending.ToQueue:
		section, err = manager.DetermineSendDestination(routing.Destination)
	case sending.ToSubscribers:
		section, err = manager.DeterminePublishDestination(routing.EventType)
	}
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range section.Entities {
		if !slices.Contains(paths, e.Path) {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}

func toDelivery(path string, msg *api.BrokeredMessage) delivery {
	return delivery{Path: path, MessageID: msg.MessageID, Properties: msg.Properties, Body: string(msg.Body)}
}

// watermillWire publishes on an in-process pub/sub. Publishing blocks until
// the tap acknowledged the message, so every delivery is recorded once the
// send returns.
func watermillWire(ctx context.Context, paths []string) (*wire, error) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		deliveries []delivery
	)
	for _, path := range paths {
		messages, err := pubSub.Subscribe(ctx, path)
		if err != nil {
			_ = pubSub.Close()
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range messages {
				mu.Lock()
				deliveries = append(deliveries, toDelivery(path, broker.FromWatermill(m)))
				mu.Unlock()
				m.Ack()
			}
		}()
	}

	return &wire{
		option: roost.WithWatermill(pubSub),
		finish: func() ([]delivery, error) {
			err := pubSub.Close()
			wg.Wait()
			return deliveries, err
		},
	}, nil
}

func natsWire(paths []string) (*wire, error) {
	conn, err := natsx.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", natsx.URL(), err)
	}
	subs := make([]*nats.Subscription, 0, len(paths))
	for _, path := range paths {
		sub, err := conn.SubscribeSync(path)
		if err != nil {
			conn.Close()
			return nil, err
		}
		subs = append(subs, sub)
	}

	return &wire{
		option: roost.WithNATS(conn),
		finish: func() ([]delivery, error) {
			defer conn.Close()
			if err := conn.Flush(); err != nil {
				return nil, err
			}
			var deliveries []delivery
			for i, sub := range subs {
				for {
					m, err := sub.NextMsg(natsDrainTimeout)
					if errors.Is(err, nats.ErrTimeout) {
						break
					}
					if err != nil {
						return deliveries, err
					}
					deliveries = append(deliveries, toDelivery(paths[i], broker.FromNATS(m)))
				}
			}
			return deliveries, nil
		},
	}, nil
}

func renderSendReport(w io.Writer, format string, report *sendReport) error {
	if format == "json" {
		return renderJSON(w, report)
	}
	fmt.Fprintf(w, "%s %s via %s to %s\n", headerColor.Sprint("endpoint"), report.Endpoint, report.Via, report.Routing)
	if len(report.Deliveries) == 0 {
		fmt.Fprintf(w, "  %s\n", missingColor.Sprint("nothing arrived"))
		return nil
	}
	for _, d := range report.Deliveries {
		fmt.Fprintf(w, "  %s %s %s\n", kindColor.Sprint(d.Path), existsColor.Sprint(d.MessageID), d.Body)
		names := make([]string, 0, len(d.Properties))
		for name := range d.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "    %s=%s\n", filterColor.Sprint(name), d.Properties[name])
		}
	}
	return nil
}
