/*
Package roost is the transport core of an endpoint talking to a namespaced
message broker of queues, topics and subscriptions.

A Transport resolves the entities the endpoint needs, creates them
idempotently in every namespace the partitioning strategy selects, and
routes outgoing messages to them with retries while the broker is busy.

	h, err := settings.New(
		settings.EndpointName("billing"),
		settings.ReplicatedNamespaces("primary", "secondary"),
	)
	if err != nil {
		return err
	}

	transport, err := roost.New("", h,
		roost.WithNamespaceManagers(managers),
		roost.WithSenderFactory(senders),
		roost.WithPublisherLookup(api.StaticPublishers{
			"sales.OrderAccepted": {"sales"},
		}),
	)
	if err != nil {
		return err
	}
	defer transport.Close()

	if err := transport.Start(ctx); err != nil {
		return err
	}
	if err := transport.Subscribe(ctx, meta.EventType{Namespace: "sales", Name: "OrderAccepted"}); err != nil {
		return err
	}

# Packages

  - settings: the typed settings store and its file and environment loader
  - addressing: partitioning, sanitization, validation and individualization strategies
  - topology: turns endpoints, destinations and event types into sections of entities
  - creation: reconciles the entities of a section with the broker
  - sending: routes and batches outgoing messages

Without WithNamespaceManagers and WithSenderFactory the transport runs
against in-memory namespaces, which is what the provision command of
cmd/roost uses.
*/
package roost
