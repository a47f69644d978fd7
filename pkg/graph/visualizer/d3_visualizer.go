package visualizer

import (
	"bytes"
	"encoding/json"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/athapong/lexgraph-mcp/pkg/graph"
	"github.com/pkg/errors"
)

// The HTML template for D3.js visualization
const d3Template = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{if .Title}}{{.Title}} - {{end}}Knowledge Graph Visualization</title>
    <script src="https://d3js.org/d3.v7.min.js"></script>
    <style>
        body { 
            margin: 0;
            font-family: Arial, sans-serif;
        }
        #graph {
            width: 100%;
            height: 100vh;
            background-color: #f5f5f5;
        }
        .node {
            stroke: #fff;
            stroke-width: 1.5px;
        }
        .link {
            stroke: #999;
            stroke-opacity: 0.6;
        }
        .node.placeholder {
            stroke: #999;
            stroke-dasharray: 2,2;
        }
        .node-label {
            font-size: 10px;
            pointer-events: none;
        }
        .controls {
            position: absolute;
            top: 10px;
            left: 10px;
            background-color: rgba(255,255,255,0.8);
            padding: 10px;
            border-radius: 5px;
            box-shadow: 0 0 10px rgba(0,0,0,0.1);
        }
    </style>
</head>
<body>
    <div id="graph"></div>
    <div class="controls">
        <h3>Knowledge Graph</h3>
        <p>Nodes: {{.NodeCount}}, Edges: {{.EdgeCount}}</p>
        {{if .Title}}<p>{{.Title}}</p>{{end}}
        <div>
            <label for="node-type-filter">Filter by node type:</label>
            <select id="node-type-filter">
                <option value="all">All Types</option>
            </select>
        </div>
    </div>

    <script>
        // Graph data
        const graphData = {{.GraphData}};
        
        // Initialize the force simulation
        const simulation = d3.forceSimulation(graphData.nodes)
            .force("link", d3.forceLink(graphData.links).id(d => d.id).distance(100))
            .force("charge", d3.forceManyBody().strength(-300))
            .force("center", d3.forceCenter(window.innerWidth / 2, window.innerHeight / 2));

        // Create SVG element
        const svg = d3.select("#graph")
            .append("svg")
            .attr("width", "100%")
            .attr("height", "100%")
            .call(d3.zoom().on("zoom", (event) => {
                g.attr("transform", event.transform);
            }));

        const g = svg.append("g");

        // Define node colors based on types
        const nodeTypes = [...new Set(graphData.nodes.filter(node => !node.placeholder).map(node => node.type))];
        const colorScale = d3.scaleOrdinal(d3.schemeCategory10).domain(nodeTypes);

        // Add node types to filter dropdown
        nodeTypes.forEach(type => {
            d3.select("#node-type-filter")
                .append("option")
                .attr("value", type)
                .text(type);
        });

        // Create links
        const link = g.append("g")
            .selectAll("line")
            .data(graphData.links)
            .enter()
            .append("line")
            .attr("class", "link")
            .attr("stroke-width", d => Math.sqrt(d.weight) * 1.5);

        // Create nodes
        const node = g.append("g")
            .selectAll("circle")
            .data(graphData.nodes)
            .enter()
            .append("circle")
            .attr("class", d => d.placeholder ? "node placeholder" : "node")
            .attr("r", 8)
            .attr("fill", d => d.placeholder ? "#fff" : colorScale(d.type))
            .call(d3.drag()
                .on("start", dragstarted)
                .on("drag", dragged)
                .on("end", dragended));

        // Add labels to nodes
        const label = g.append("g")
            .selectAll("text")
            .data(graphData.nodes)
            .enter()
            .append("text")
            .attr("class", "node-label")
            .attr("dx", 12)
            .attr("dy", ".35em")
            .text(d => d.label || d.id);

        // Node tooltip
        node.append("title")
            .text(d => d.placeholder ? d.id + " (not extracted)" : d.label + " (" + d.type + ")");

        // Link tooltip
        link.append("title")
            .text(d => d.type + (d.weight > 1 ? " x" + d.weight : ""));

        // Update positions on simulation tick
        simulation.on("tick", () => {
            link
                .attr("x1", d => d.source.x)
                .attr("y1", d => d.source.y)
                .attr("x2", d => d.target.x)
                .attr("y2", d => d.target.y);

            node
                .attr("cx", d => d.x)
                .attr("cy", d => d.y);

            label
                .attr("x", d => d.x)
                .attr("y", d => d.y);
        });

        // Node type filter
        d3.select("#node-type-filter").on("change", function() {
            const selectedType = this.value;
            
            if (selectedType === "all") {
                node.style("visibility", "visible");
                link.style("visibility", "visible");
                label.style("visibility", "visible");
                return;
            }
            
            // Hide nodes that don't match the selected type
            node.style("visibility", d => d.type === selectedType ? "visible" : "hidden");
            
            // Hide labels for hidden nodes
            label.style("visibility", d => d.type === selectedType ? "visible" : "hidden");
            
            // Hide links that don't connect to visible nodes
            link.style("visibility", d => {
                const sourceVisible = d.source.type === selectedType;
                const targetVisible = d.target.type === selectedType;
                return sourceVisible || targetVisible ? "visible" : "hidden";
            });
        });

        // Drag functions
        function dragstarted(event, d) {
            if (!event.active) simulation.alphaTarget(0.3).restart();
            d.fx = d.x;
            d.fy = d.y;
        }

        function dragged(event, d) {
            d.fx = event.x;
            d.fy = event.y;
        }

        function dragended(event, d) {
            if (!event.active) simulation.alphaTarget(0);
            d.fx = null;
            d.fy = null;
        }
    </script>
</body>
</html>
`

var pageTemplate = template.Must(template.New("d3").Parse(d3Template))

// D3Visualizer creates D3.js-based visualizations of knowledge graphs
type D3Visualizer struct {
	outputPath string
	title      string
}

// NewD3Visualizer creates a new D3.js visualizer
func NewD3Visualizer(outputPath string) *D3Visualizer {
	return &D3Visualizer{
		outputPath: outputPath,
	}
}

// WithTitle sets the caption shown above the graph.
func (v *D3Visualizer) WithTitle(title string) *D3Visualizer {
	v.title = title
	return v
}

type viewNode struct {
	ID          string                 `json:"id"`
	Label       string                 `json:"label"`
	Type        string                 `json:"type"`
	Meta        map[string]interface{} `json:"meta,omitempty"`
	Placeholder bool                   `json:"placeholder,omitempty"`
}

type viewLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	Weight int    `json:"weight"`
}

type viewGraph struct {
	Nodes []viewNode `json:"nodes"`
	Links []viewLink `json:"links"`
}

// buildView turns a snapshot into what the page script draws. Parallel links
// with the same type collapse into one weighted line, and endpoints with no
// stored node get placeholder circles so the force layout can resolve them.
func buildView(snapshot *graph.Snapshot) viewGraph {
	view := viewGraph{
		Nodes: make([]viewNode, 0, len(snapshot.Nodes)),
		Links: make([]viewLink, 0, len(snapshot.Links)),
	}

	known := make(map[string]struct{}, len(snapshot.Nodes))
	for _, n := range snapshot.Nodes {
		view.Nodes = append(view.Nodes, viewNode{ID: n.ID, Label: n.Label, Type: n.Type, Meta: n.Meta})
		known[n.ID] = struct{}{}
	}

	weights := make(map[graph.Link]int, len(snapshot.Links))
	for _, l := range snapshot.Links {
		for _, id := range []string{l.Source, l.Target} {
			if _, ok := known[id]; ok {
				continue
			}
			known[id] = struct{}{}
			nodeType, label, _ := strings.Cut(id, ":")
			view.Nodes = append(view.Nodes, viewNode{ID: id, Label: label, Type: nodeType, Placeholder: true})
		}

		if weights[l] == 0 {
			view.Links = append(view.Links, viewLink{Source: l.Source, Target: l.Target, Type: l.Type})
		}
		weights[l]++
	}
	for i := range view.Links {
		l := view.Links[i]
		view.Links[i].Weight = weights[graph.Link{Source: l.Source, Target: l.Target, Type: l.Type}]
	}

	return view
}

// Render writes the HTML page for snapshot to w.
func (v *D3Visualizer) Render(w io.Writer, snapshot *graph.Snapshot) error {
	if snapshot == nil {
		snapshot = graph.NewSnapshot()
	}

	graphData, err := json.Marshal(buildView(snapshot))
	if err != nil {
		return errors.Wrap(err, "encode graph data")
	}

	data := struct {
		Title     string
		GraphData template.JS
		NodeCount int
		EdgeCount int
	}{
		Title:     v.title,
		GraphData: template.JS(graphData),
		NodeCount: len(snapshot.Nodes),
		EdgeCount: len(snapshot.Links),
	}

	return pageTemplate.Execute(w, data)
}

// Visualize generates an HTML visualization of the knowledge graph at the
// configured output path.
func (v *D3Visualizer) Visualize(snapshot *graph.Snapshot) error {
	dir := filepath.Dir(v.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := v.Render(&buf, snapshot); err != nil {
		return err
	}

	return os.WriteFile(v.outputPath, buf.Bytes(), 0644)
}
