package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dd0wney/cluso-anatomy/pkg/algorithms"
	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
	_ "github.com/dd0wney/cluso-anatomy/pkg/circulation"
	_ "github.com/dd0wney/cluso-anatomy/pkg/nervous"
	"github.com/dd0wney/cluso-anatomy/pkg/network"
	"github.com/dd0wney/cluso-anatomy/pkg/visualization"
)

func runInspect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "Template file (.json, .yaml, optionally .sz)")
	key := fs.String("key", "", "Template key <template>/<network>, when the file does not declare one")
	node := fs.String("node", "", "Print details and the neighbourhood of this node")
	hops := fs.Int("hops", 1, "Neighbourhood radius for -node")
	layoutOut := fs.String("layout-out", "", "Write a JSON layout of the network to this file")
	layoutName := fs.String("layout", visualization.LayoutHierarchical, "Layout for -layout-out: hierarchical, circular or force")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("inspect: -file is required")
	}

	doc, err := anatomyspec.ParseFile(*file)
	if err != nil {
		return err
	}
	if err := bindKey(doc, *file, *key); err != nil {
		return err
	}

	net, err := doc.Build()
	if err != nil {
		return err
	}
	digest, err := anatomyspec.Digest(doc)
	if err != nil {
		return err
	}

	printSummary(stdout, doc.Key(), digest, net)

	if *node != "" {
		if err := printNode(stdout, net, *node, *hops); err != nil {
			return err
		}
	}
	if *layoutOut != "" {
		return writeLayout(stdout, net, *layoutName, *layoutOut)
	}
	return nil
}

func writeLayout(w io.Writer, net *network.Network, name, path string) error {
	layout, err := visualization.NewLayout(name, visualization.DefaultLayoutConfig())
	if err != nil {
		return err
	}
	viz, err := visualization.New(net, layout)
	if err != nil {
		return err
	}
	data, err := viz.ExportJSON()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nLayout (%s) written to %s\n", name, path)
	return nil
}

// bindKey fills in the document key from -key, or from a
// <template>/<network>.<ext> path when neither is declared.
func bindKey(doc *anatomyspec.Document, path, raw string) error {
	if raw != "" {
		key, err := anatomyspec.ParseKey(raw)
		if err != nil {
			return err
		}
		return doc.Bind(key)
	}
	if doc.Template != "" && doc.Network != "" {
		return nil
	}

	base := filepath.Base(path)
	base = strings.TrimSuffix(base, anatomyspec.CompressedSuffix)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return doc.Bind(anatomyspec.Key{
		Template: filepath.Base(filepath.Dir(path)),
		Network:  base,
	})
}

func printSummary(w io.Writer, key anatomyspec.Key, digest string, net *network.Network) {
	stats := net.Stats()

	fmt.Fprintf(w, "Template:  %s\n", key)
	fmt.Fprintf(w, "Digest:    %s\n", digest)
	fmt.Fprintf(w, "Nodes:     %d\n", stats.Nodes)
	fmt.Fprintf(w, "Edges:     %d (%d bridges)\n", stats.Edges, stats.Bridges)
	fmt.Fprintf(w, "Regions:   %d\n", stats.Regions)
	fmt.Fprintf(w, "Max cycle: %d\n", net.MaxCycle())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Subsystems:")
	for _, name := range net.Subsystems() {
		depth, _ := net.MaxDepth(name)
		fmt.Fprintf(w, "  %-12s max depth %d\n", name, depth)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Start:     %s\n", strings.Join(net.Names(net.StartNodes()), ", "))
	fmt.Fprintf(w, "Terminal:  %s\n", strings.Join(net.Names(net.TerminalNodes()), ", "))
	fmt.Fprintf(w, "Junctions: %d pre, %d post\n", len(net.PreJunctionNodes()), len(net.PostJunctionNodes()))
}

func printNode(w io.Writer, net *network.Network, name string, hops int) error {
	id, err := net.Lookup(name)
	if err != nil {
		return err
	}
	node, err := net.Node(id)
	if err != nil {
		return err
	}

	regions := make([]string, len(node.Regions))
	for i, r := range node.Regions {
		regions[i] = string(r)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Node %s\n", node.Name)
	fmt.Fprintf(w, "  kind:       %s\n", node.Kind)
	fmt.Fprintf(w, "  subsystem:  %s\n", node.Subsystem)
	fmt.Fprintf(w, "  depth:      %d\n", node.Depth)
	fmt.Fprintf(w, "  regions:    %s\n", strings.Join(regions, ", "))
	fmt.Fprintf(w, "  upstream:   %s\n", strings.Join(net.Names(node.Upstream), ", "))
	fmt.Fprintf(w, "  downstream: %s\n", strings.Join(net.Names(node.Downstream), ", "))

	near, err := net.Neighbourhood(id, hops, algorithms.DirectionBoth)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "  within %d:   %s\n", hops, strings.Join(net.Names(near), ", "))
	return nil
}
