package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/casualjim/roost/meta"
	"github.com/fatih/color"
	"github.com/goccy/go-json"
)

var (
	headerColor    = color.New(color.FgMagenta, color.Bold)
	namespaceColor = color.New(color.FgCyan)
	kindColor      = color.New(color.FgYellow)
	filterColor    = color.New(color.Faint)
	existsColor    = color.New(color.FgGreen)
	missingColor   = color.New(color.FgRed)
)

// entityStatus is keyed by statusKey.
type entityStatus map[string]bool

func statusKey(ns meta.NamespaceInfo, kind meta.EntityKind, path string) string {
	return ns.Key() + "|" + kind.String() + "|" + path
}

func subscriptionPath(topic meta.EntityInfo, sub meta.SubscriptionInfo) string {
	return topic.Path + "/" + sub.Path
}

func render(w io.Writer, format string, p *plan, status entityStatus) error {
	if format == "json" {
		return renderJSON(w, p)
	}
	renderTree(w, p, status)
	return nil
}

func renderJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func renderTree(w io.Writer, p *plan, status entityStatus) {
	fmt.Fprintf(w, "%s %s (%s)\n", headerColor.Sprint("endpoint"), p.Endpoint, p.LocalAddress)
	for _, ps := range p.Sections {
		title := ps.Name
		if ps.EventType != "" {
			title += " " + ps.EventType
		}
		fmt.Fprintln(w, headerColor.Sprint(title))

		for _, ns := range ps.Section.Namespaces {
			fmt.Fprintf(w, "  %s %s\n", namespaceColor.Sprint(ns.ConnectionString), filterColor.Sprint(ns.Mode))
			entities, subs := ps.Section.InNamespace(ns)
			for _, e := range entities {
				fmt.Fprintf(w, "    %s %s%s\n", kindColor.Sprint(e.Kind), e.Path, marker(status, statusKey(ns, e.Kind, e.Path)))
			}
			for _, sub := range subs {
				topic, _ := ps.Section.TopicFor(sub)
				path := subscriptionPath(topic, sub)
				fmt.Fprintf(w, "    %s %s%s\n", kindColor.Sprint(sub.Kind), path, marker(status, statusKey(ns, sub.Kind, path)))
				fmt.Fprintf(w, "      %s\n", filterColor.Sprint(sub.Filter))
			}
		}
	}
}

func marker(status entityStatus, key string) string {
	if status == nil {
		return ""
	}
	if status[key] {
		return " " + existsColor.Sprint("exists")
	}
	return " " + missingColor.Sprint("missing")
}

func renderCounts(w io.Writer, title string, counts map[string]float64) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, headerColor.Sprint(title))
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %v\n", k, counts[k])
	}
}
