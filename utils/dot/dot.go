// Package dot builds graphviz graphs, renders them to images and shows them
// with xdot.
package dot

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/goccy/go-graphviz"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DotToImage renders a dot graph to outfname.format, next to a copy of the
// dot source, and returns the path of the image. An empty outfname renders
// to the temporary directory.
func DotToImage(outfname string, format string, dot []byte) (string, error) {
	basepath := outfname
	if basepath == "" {
		basepath = filepath.Join(os.TempDir(), "flowpass_export")
	}

	dotpath := basepath + ".dot"
	if err := os.WriteFile(dotpath, dot, 0644); err != nil {
		return "", err
	}
	log.Println("Exported dot graph to", dotpath)

	g := graphviz.New()
	defer g.Close()
	graph, err := graphviz.ParseBytes(dot)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", dotpath, err)
	}
	defer graph.Close()

	img := basepath + "." + format
	if err := g.RenderFilename(graph, graphviz.Format(format), img); err != nil {
		return "", fmt.Errorf("rendering %s: %w", img, err)
	}
	return img, nil
}

const tmplEdge = `{{define "edge" -}}
	{{printf "%q -> %q [ %s ]" .From .To .Attrs}}
{{- end}}`

const tmplNode = `{{define "node" -}}
	{{printf "%q [ %s ]" .ID .Attrs}}
{{- end}}`

const tmplGraph = `digraph BoundTree {
	label="{{.Title}}";
	labeljust="l";
	fontname="Arial";
	fontsize="14";
	rankdir="{{or .Options.rankdir "LR"}}";
	bgcolor="lightgray";
	style="solid";
	penwidth="0.5";
	pad="0.0";
	nodesep="{{.Options.nodesep}}";
	remincross="{{or .Options.remincross "true"}}";

	node [shape="ellipse" style="filled" fillcolor="white" fontname="Verdana" penwidth="1.0" margin="0.05,0.0"];
	edge [minlen="{{.Options.minlen}}"]

	{{range .Nodes}}
	{{template "node" .}}
	{{- end}}

	{{- range .Edges}}
	{{template "edge" .}}
	{{- end}}
}
`

type DotNode struct {
	ID    string
	Attrs DotAttrs
}

func (n *DotNode) String() string {
	return n.ID
}

type DotEdge struct {
	From  *DotNode
	To    *DotNode
	Attrs DotAttrs
}

type DotAttrs map[string]string

// List renders the attributes sorted by name.
func (p DotAttrs) List() []string {
	keys := maps.Keys(p)
	slices.Sort(keys)
	l := make([]string, 0, len(keys))
	for _, k := range keys {
		l = append(l, fmt.Sprintf("%s=%q;", k, p[k]))
	}
	return l
}

func (p DotAttrs) String() string {
	return strings.Join(p.List(), " ")
}


type DotGraph struct {
	Title   string
	Nodes   []*DotNode
	Edges   []*DotEdge
	Options map[string]string
}

func (g *DotGraph) WriteDot(w io.Writer) error {
	t := template.New("dot")
	t.Option("missingkey=zero") // Make missing map keys return the zero value of appropriate type
	for _, s := range []string{tmplNode, tmplEdge, tmplGraph} {
		if _, err := t.Parse(s); err != nil {
			return err
		}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, g); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (g *DotGraph) ShowDot() {
	xdot, err := exec.LookPath("xdot")
	if err != nil {
		log.Fatalln("unable to find program 'xdot', please install it or check your PATH")
	}

	f, err := os.CreateTemp("", "flowpass.*.dot")
	if err != nil {
		log.Fatalln(err)
	}

	defer os.Remove(f.Name())

	if err := g.WriteDot(f); err != nil {
		f.Close()
		log.Fatalln(err)
	} else if err := f.Close(); err != nil {
		log.Fatalln(err)
	}

	var edgeCount int
	for _, e := range g.Edges {
		if str, ok := e.Attrs["style"]; !(ok && strings.Contains(str, "invis")) {
			edgeCount++
		}
	}

	log.Println("Stored dotgraph at", f.Name())
	log.Printf("Graph has %d nodes and %d edges.\n", len(g.Nodes), edgeCount)
	log.Println("Starting xdot...")

	if err := exec.Command(xdot, f.Name()).Run(); err != nil {
		log.Printf("Command finished with error: %v", err)
	}
}
