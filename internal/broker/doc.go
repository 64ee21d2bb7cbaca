// Package broker contains the broker backends.
//
// Namespace is an in-memory namespace: it implements api.NamespaceManager
// and api.SenderFactory, keeps every message it receives, evaluates the
// subscription rules the topology generates, and refuses updates that touch
// immutable fields. Faults can be injected per operation and entity, which
// makes it the test double for everything that talks to a broker.
//
// NATSSenders and WatermillSenders are sender factories over real
// transports. They only send; entity management stays with the namespace
// manager of the deployment.
//
//	namespaces := broker.NewNamespaces()
//	ns := namespaces.Namespace(meta.NamespaceInfo{ConnectionString: "primary"})
//	ns.Inject(broker.Fault{Op: broker.OpSend, Path: "billing", Kind: api.KindServerBusy})
package broker
