// Package mcp provides the MCP (Model Context Protocol) server for tramo-go.
//
// The server is bound to one loaded graph (and optionally its tramo map) and
// exposes the routing and diagnosis operations as MCP tools over stdio.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tramo-dev/tramo-go/internal/diagnose"
	"github.com/tramo-dev/tramo-go/internal/geometry"
	"github.com/tramo-dev/tramo-go/internal/graph"
	"github.com/tramo-dev/tramo-go/internal/routing"
)

// Server represents the MCP server.
type Server struct {
	graphPath string
	store     *graph.Store
	tramos    *graph.TramoMap
	server    *mcpsdk.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server over a loaded graph. tramos may be nil.
func NewServer(graphPath string, store *graph.Store, tramos *graph.TramoMap) *Server {
	s := &Server{
		graphPath: graphPath,
		store:     store,
		tramos:    tramos,
	}

	s.server = mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "tramo-go",
		Version: "0.1.0",
	}, nil)

	return s
}

// tripleSchema is the schema of one [x, y, z] coordinate.
var tripleSchema = &jsonschema.Schema{
	Type:        "array",
	Items:       &jsonschema.Schema{Type: "number"},
	Description: "Coordinate triple [x, y, z]",
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "tramo_route",
			Description: "Find the shortest route between two points for a cable class, optionally through ordered waypoints and with forward-path (no U-turn) mode.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"cable":        {Type: "string", Enum: []any{"A", "B", "C"}, Description: "Cable class"},
					"src":          tripleSchema,
					"dst":          tripleSchema,
					"ppos":         {Type: "array", Items: tripleSchema, Description: "Ordered mandatory waypoints"},
					"forward_path": {Type: "boolean", Description: "Forbid U-turns at waypoints"},
					"forbidden":    {Type: "array", Items: &jsonschema.Schema{Type: "integer"}, Description: "Forbidden tramo ids"},
				},
				Required: []string{"cable", "src", "dst"},
			},
		},
		{
			Name:        "tramo_diagnose",
			Description: "Report where two endpoints exist across graph files and which cable classes could connect them.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"src": tripleSchema,
					"dst": tripleSchema,
					"graphs": {
						Type:        "array",
						Items:       &jsonschema.Schema{Type: "string"},
						Description: "Graph files to check; defaults to the served graph",
					},
				},
				Required: []string{"src", "dst"},
			},
		},
		{
			Name:        "tramo_edge_info",
			Description: "Resolve a tramo id to its edge, or an edge to its tramo id.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"id": {Type: "integer", Description: "Tramo id to resolve"},
					"u":  tripleSchema,
					"v":  tripleSchema,
				},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         "tramo://policy",
			Name:        "Cable Access Policy",
			Description: "Which subsystems each cable class may traverse",
			MimeType:    "text/plain",
		},
		{
			URI:         "tramo://stats",
			Name:        "Graph Statistics",
			Description: "Size and per-system breakdown of the served graph",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	switch name {
	case "tramo_route":
		return s.handleRoute(args)
	case "tramo_diagnose":
		return s.handleDiagnose(args)
	case "tramo_edge_info":
		return s.handleEdgeInfo(args)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

func (s *Server) handleRoute(args map[string]any) (string, error) {
	cableArg, _ := args["cable"].(string)
	cable, err := routing.ParseCable(cableArg)
	if err != nil {
		return "", err
	}

	src, err := triple(args["src"])
	if err != nil {
		return "", fmt.Errorf("src: %w", err)
	}
	dst, err := triple(args["dst"])
	if err != nil {
		return "", fmt.Errorf("dst: %w", err)
	}

	waypoints := []geometry.Point{src}
	if ppos, ok := args["ppos"].([]any); ok {
		for i, raw := range ppos {
			pt, err := triple(raw)
			if err != nil {
				return "", fmt.Errorf("ppo %d: %w", i+1, err)
			}
			waypoints = append(waypoints, pt)
		}
	}
	waypoints = append(waypoints, dst)

	forwardPath, _ := args["forward_path"].(bool)

	forbidden := make(map[int]struct{})
	if ids, ok := args["forbidden"].([]any); ok {
		for _, raw := range ids {
			if id, ok := raw.(float64); ok {
				forbidden[int(id)] = struct{}{}
			}
		}
	}

	route, err := routing.Plan(s.store, s.tramos, cable, forbidden, waypoints, forwardPath)
	if err != nil {
		findings := diagnose.Run(src, dst, []string{s.graphPath}, diagnose.NewFileSource())
		return "", fmt.Errorf("%w\n%s", err, formatFindings(findings))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Route found: %d points, length %.3f, %d nodes explored\n",
		len(route.Keys), route.Length, route.Explored)
	for _, seg := range route.Segments {
		fmt.Fprintf(&sb, "  segment %d: %s -> %s (%d points, %d explored)\n",
			seg.Index, seg.From, seg.To, seg.Points, seg.Explored)
	}
	sb.WriteString("Polyline:\n")
	for _, key := range route.Keys {
		sb.WriteString("  " + key + "\n")
	}
	return sb.String(), nil
}

func (s *Server) handleDiagnose(args map[string]any) (string, error) {
	src, err := triple(args["src"])
	if err != nil {
		return "", fmt.Errorf("src: %w", err)
	}
	dst, err := triple(args["dst"])
	if err != nil {
		return "", fmt.Errorf("dst: %w", err)
	}

	files := []string{s.graphPath}
	if raw, ok := args["graphs"].([]any); ok && len(raw) > 0 {
		files = files[:0]
		for _, f := range raw {
			if path, ok := f.(string); ok {
				files = append(files, path)
			}
		}
	}

	findings := diagnose.Run(src, dst, files, diagnose.NewFileSource())
	return formatFindings(findings), nil
}

func (s *Server) handleEdgeInfo(args map[string]any) (string, error) {
	if s.tramos == nil {
		return "", fmt.Errorf("no tramo map loaded; start the server with --tramos")
	}

	if rawID, ok := args["id"].(float64); ok {
		endpoints, found := s.tramos.EdgeForID(int(rawID))
		if !found {
			return "", fmt.Errorf("tramo id %d is not in the map", int(rawID))
		}
		return fmt.Sprintf("Tramo %d: %s - %s", int(rawID), endpoints.U, endpoints.V), nil
	}

	u, err := triple(args["u"])
	if err != nil {
		return "", fmt.Errorf("u: %w", err)
	}
	v, err := triple(args["v"])
	if err != nil {
		return "", fmt.Errorf("v: %w", err)
	}

	id, found := s.tramos.IDForEdge(u.Key, v.Key)
	if !found {
		return "", fmt.Errorf("edge %s has no tramo id", graph.EdgeKey(u.Key, v.Key))
	}
	return fmt.Sprintf("Edge %s: tramo id %d", graph.EdgeKey(u.Key, v.Key), id), nil
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "tramo://policy":
		return policyText(), nil
	case "tramo://stats":
		return s.statsText(), nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

func policyText() string {
	var sb strings.Builder
	sb.WriteString("Cable access policy:\n")
	for _, cable := range []routing.Cable{routing.CableA, routing.CableB, routing.CableC} {
		fmt.Fprintf(&sb, "  cable %s -> systems %v\n", cable, routing.PermittedList(cable))
	}
	return sb.String()
}

func (s *Server) statsText() string {
	vertices, edges := s.store.CountBySystem()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Graph: %s\n", s.graphPath)
	fmt.Fprintf(&sb, "  Nodes: %d (A: %d, B: %d)\n",
		s.store.VertexCount(), vertices[graph.SystemA], vertices[graph.SystemB])
	fmt.Fprintf(&sb, "  Edges: %d (A: %d, B: %d)\n",
		s.store.EdgeCount(), edges[graph.SystemA], edges[graph.SystemB])
	if s.tramos != nil {
		fmt.Fprintf(&sb, "  Tramo ids: %d\n", s.tramos.Len())
	}
	return sb.String()
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	encoder := json.NewEncoder(stdout)
	// Note: Do NOT use SetIndent - MCP protocol requires compact JSON (one line per message)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    "tramo-go",
				"version": "0.1.0",
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)

	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32000, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

// triple decodes a JSON [x, y, z] argument into a canonical point.
func triple(raw any) (geometry.Point, error) {
	arr, ok := raw.([]any)
	if !ok || len(arr) != 3 {
		return geometry.Point{}, fmt.Errorf("expected [x, y, z]")
	}

	var vals [3]float64
	for i, v := range arr {
		f, ok := v.(float64)
		if !ok {
			return geometry.Point{}, fmt.Errorf("component %d is not a number", i)
		}
		vals[i] = f
	}
	return geometry.New(vals[0], vals[1], vals[2])
}

func formatFindings(f *diagnose.Findings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Endpoint diagnosis (%s)\n", f.Outcome)
	for _, row := range f.PerGraph {
		if row.LoadErr != "" {
			fmt.Fprintf(&sb, "  %s: unreadable (%s)\n", row.File, row.LoadErr)
			continue
		}
		fmt.Fprintf(&sb, "  %s: source %s, destination %s\n",
			row.File, presenceText(row.Src), presenceText(row.Dst))
	}
	if len(f.RecommendedCables) > 0 {
		fmt.Fprintf(&sb, "  Feasible cables: %v\n", f.RecommendedCables)
	}
	if f.SuggestedCommand != "" {
		fmt.Fprintf(&sb, "  Try: %s\n", f.SuggestedCommand)
	}
	return sb.String()
}

func presenceText(p diagnose.Presence) string {
	if !p.Found {
		return "absent"
	}
	return "in system " + string(p.Tag)
}
