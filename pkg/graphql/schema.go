// Package graphql exposes the live layout over GraphQL: the current frame,
// per-person metrics and the layout commands.
package graphql

import (
	"context"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-socialgraph/pkg/validation"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// Backend is the layout engine as seen by resolvers.
type Backend interface {
	Snapshot(ctx context.Context) (visualization.Frame, error)
	Settings(ctx context.Context) (visualization.Settings, error)
	UpdateSettings(ctx context.Context, s visualization.Settings) error
	Reset(ctx context.Context) error
	Pin(ctx context.Context, id uint64, pos visualization.Position) error
	Release(ctx context.Context, id uint64) error
}

// person pairs a node with the frame it came from so nested fields can
// resolve neighbours without a second snapshot.
type person struct {
	visualization.NodeView
	frame *visualization.Frame
}

type relationship struct {
	visualization.EdgeView
	frame *visualization.Frame
}

// NewSchema builds the schema over b.
func NewSchema(b Backend) (graphql.Schema, error) {
	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Point",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
			"y": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	pathType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Path",
		Fields: graphql.Fields{
			"from": &graphql.Field{Type: pointType, Resolve: pathField(func(p visualization.CubicPath) visualization.Position { return p.From })},
			"c1":   &graphql.Field{Type: pointType, Resolve: pathField(func(p visualization.CubicPath) visualization.Position { return p.C1 })},
			"c2":   &graphql.Field{Type: pointType, Resolve: pathField(func(p visualization.CubicPath) visualization.Position { return p.C2 })},
			"to":   &graphql.Field{Type: pointType, Resolve: pathField(func(p visualization.CubicPath) visualization.Position { return p.To })},
			"svg": &graphql.Field{
				Type: graphql.String,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source.(visualization.CubicPath).SVG(), nil
				},
			},
		},
	})

	var personType *graphql.Object
	personType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Person",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return personFields(personType)
		}),
	})

	relationshipType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Relationship",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: relField(func(e relationship) any { return formatID(e.ID) })},
			"intensity": &graphql.Field{Type: graphql.String, Resolve: relField(func(e relationship) any { return string(e.Intensity) })},
			"pending":   &graphql.Field{Type: graphql.Boolean, Resolve: relField(func(e relationship) any { return e.Pending })},
			"drawing":   &graphql.Field{Type: graphql.Boolean, Resolve: relField(func(e relationship) any { return e.Drawing })},
			"path":      &graphql.Field{Type: pathType, Resolve: relField(func(e relationship) any { return e.Path })},
			"source":    &graphql.Field{Type: personType, Resolve: relField(func(e relationship) any { return lookup(e.frame, e.Source) })},
			"target":    &graphql.Field{Type: personType, Resolve: relField(func(e relationship) any { return lookup(e.frame, e.Target) })},
		},
	})

	settingsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Settings",
		Fields: graphql.Fields{
			"repulsionStrength": &graphql.Field{Type: graphql.Float, Resolve: settingsField(func(s visualization.Settings) any { return s.RepulsionStrength })},
			"linkDistance":      &graphql.Field{Type: graphql.Float, Resolve: settingsField(func(s visualization.Settings) any { return s.LinkDistance })},
			"nodeSizeMode":      &graphql.Field{Type: graphql.String, Resolve: settingsField(func(s visualization.Settings) any { return string(s.NodeSizeMode) })},
		},
	})

	frameType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Frame",
		Fields: graphql.Fields{
			"seq":            &graphql.Field{Type: graphql.Int, Resolve: frameField(func(f *visualization.Frame) any { return int(f.Seq) })},
			"alpha":          &graphql.Field{Type: graphql.Float, Resolve: frameField(func(f *visualization.Frame) any { return f.Alpha })},
			"settled":        &graphql.Field{Type: graphql.Boolean, Resolve: frameField(func(f *visualization.Frame) any { return f.Settled })},
			"reveal":         &graphql.Field{Type: graphql.String, Resolve: frameField(func(f *visualization.Frame) any { return f.Reveal.String() })},
			"revealProgress": &graphql.Field{Type: graphql.Float, Resolve: frameField(func(f *visualization.Frame) any { return f.Progress })},
			"people": &graphql.Field{
				Type: graphql.NewList(personType),
				Args: graphql.FieldConfigArgument{
					"visibleOnly": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: true},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					f := p.Source.(*visualization.Frame)
					visibleOnly, _ := p.Args["visibleOnly"].(bool)
					out := make([]person, 0, len(f.Nodes))
					for _, n := range f.Nodes {
						if visibleOnly && !n.Visible {
							continue
						}
						out = append(out, person{NodeView: n, frame: f})
					}
					return out, nil
				},
			},
			"relationships": &graphql.Field{
				Type: graphql.NewList(relationshipType),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					f := p.Source.(*visualization.Frame)
					out := make([]relationship, len(f.Edges))
					for i, e := range f.Edges {
						out[i] = relationship{EdgeView: e, frame: f}
					}
					return out, nil
				},
			},
		},
	})

	metricEnum := graphql.NewEnum(graphql.EnumConfig{
		Name: "Metric",
		Values: graphql.EnumValueConfigMap{
			"DEGREE":      &graphql.EnumValueConfig{Value: "degree"},
			"BETWEENNESS": &graphql.EnumValueConfig{Value: "betweenness"},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"graph": &graphql.Field{
				Type: frameType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return snapshot(p.Context, b)
				},
			},
			"person": &graphql.Field{
				Type: personType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					f, err := snapshot(p.Context, b)
					if err != nil {
						return nil, err
					}
					return lookup(f, id), nil
				},
			},
			"topPeople": &graphql.Field{
				Type: graphql.NewList(personType),
				Args: graphql.FieldConfigArgument{
					"by":    &graphql.ArgumentConfig{Type: metricEnum, DefaultValue: "degree"},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					f, err := snapshot(p.Context, b)
					if err != nil {
						return nil, err
					}
					by, _ := p.Args["by"].(string)
					limit, _ := p.Args["limit"].(int)
					return topPeople(f, by, limit), nil
				},
			},
			"settings": &graphql.Field{
				Type: settingsType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return b.Settings(p.Context)
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"reset": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if err := b.Reset(p.Context); err != nil {
						return nil, err
					}
					return true, nil
				},
			},
			"updateSettings": &graphql.Field{
				Type: settingsType,
				Args: graphql.FieldConfigArgument{
					"repulsionStrength": &graphql.ArgumentConfig{Type: graphql.Float},
					"linkDistance":      &graphql.ArgumentConfig{Type: graphql.Float},
					"nodeSizeMode":      &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return updateSettings(p.Context, b, p.Args)
				},
			},
			"pin": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"x":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"y":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					x, _ := p.Args["x"].(float64)
					y, _ := p.Args["y"].(float64)
					if err := b.Pin(p.Context, id, visualization.Position{X: x, Y: y}); err != nil {
						return nil, err
					}
					return true, nil
				},
			},
			"release": &graphql.Field{
				Type: graphql.Boolean,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, err := parseID(p.Args["id"])
					if err != nil {
						return nil, err
					}
					if err := b.Release(p.Context, id); err != nil {
						return nil, err
					}
					return true, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}

func personFields(self *graphql.Object) graphql.Fields {
	return graphql.Fields{
		"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: personField(func(n person) any { return formatID(n.ID) })},
		"name":        &graphql.Field{Type: graphql.String, Resolve: personField(func(n person) any { return n.Label })},
		"x":           &graphql.Field{Type: graphql.Float, Resolve: personField(func(n person) any { return n.X })},
		"y":           &graphql.Field{Type: graphql.Float, Resolve: personField(func(n person) any { return n.Y })},
		"size":        &graphql.Field{Type: graphql.Float, Resolve: personField(func(n person) any { return n.Size })},
		"degree":      &graphql.Field{Type: graphql.Int, Resolve: personField(func(n person) any { return n.Degree })},
		"betweenness": &graphql.Field{Type: graphql.Float, Resolve: personField(func(n person) any { return n.Betweenness })},
		"visible":     &graphql.Field{Type: graphql.Boolean, Resolve: personField(func(n person) any { return n.Visible })},
		"isNew":       &graphql.Field{Type: graphql.Boolean, Resolve: personField(func(n person) any { return n.IsNew })},
		"pinned":      &graphql.Field{Type: graphql.Boolean, Resolve: personField(func(n person) any { return n.Pinned })},
		"connections": &graphql.Field{
			Type: graphql.NewList(self),
			Resolve: personField(func(n person) any {
				return connections(n.frame, n.ID)
			}),
		},
	}
}

func personField(get func(person) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		n, ok := p.Source.(person)
		if !ok {
			return nil, nil
		}
		return get(n), nil
	}
}

func relField(get func(relationship) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		return get(p.Source.(relationship)), nil
	}
}

func frameField(get func(*visualization.Frame) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		return get(p.Source.(*visualization.Frame)), nil
	}
}

func settingsField(get func(visualization.Settings) any) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		return get(p.Source.(visualization.Settings)), nil
	}
}

func pathField(get func(visualization.CubicPath) visualization.Position) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (any, error) {
		pos := get(p.Source.(visualization.CubicPath))
		return map[string]any{"x": pos.X, "y": pos.Y}, nil
	}
}

func snapshot(ctx context.Context, b Backend) (*visualization.Frame, error) {
	f, err := b.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// lookup returns nil for unknown ids so the field resolves to null.
func lookup(f *visualization.Frame, id uint64) any {
	n, ok := f.Node(id)
	if !ok {
		return nil
	}
	return person{NodeView: n, frame: f}
}

// connections returns the people joined to id by a rendered relationship.
func connections(f *visualization.Frame, id uint64) []person {
	seen := make(map[uint64]bool)
	var out []person
	for _, e := range f.Edges {
		var other uint64
		switch id {
		case e.Source:
			other = e.Target
		case e.Target:
			other = e.Source
		default:
			continue
		}
		if seen[other] {
			continue
		}
		seen[other] = true
		if n, ok := f.Node(other); ok {
			out = append(out, person{NodeView: n, frame: f})
		}
	}
	return out
}

func topPeople(f *visualization.Frame, by string, limit int) []person {
	nodes := f.VisibleNodes()
	score := func(n visualization.NodeView) float64 {
		if by == "betweenness" {
			return n.Betweenness
		}
		return float64(n.Degree)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		si, sj := score(nodes[i]), score(nodes[j])
		if si != sj {
			return si > sj
		}
		return nodes[i].ID < nodes[j].ID
	})
	if limit > 0 && limit < len(nodes) {
		nodes = nodes[:limit]
	}
	out := make([]person, len(nodes))
	for i, n := range nodes {
		out[i] = person{NodeView: n, frame: f}
	}
	return out
}

func updateSettings(ctx context.Context, b Backend, args map[string]any) (visualization.Settings, error) {
	s, err := b.Settings(ctx)
	if err != nil {
		return s, err
	}
	if v, ok := args["repulsionStrength"].(float64); ok {
		s.RepulsionStrength = v
	}
	if v, ok := args["linkDistance"].(float64); ok {
		s.LinkDistance = v
	}
	if v, ok := args["nodeSizeMode"].(string); ok {
		mode, err := visualization.ParseSizeMode(v)
		if err != nil {
			return s, err
		}
		s.NodeSizeMode = mode
	}
	if err := validation.Struct(s); err != nil {
		return s, err
	}
	if err := b.UpdateSettings(ctx, s); err != nil {
		return s, err
	}
	return s, nil
}

func parseID(v any) (uint64, error) {
	s, _ := v.(string)
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Newf("invalid person id %q", s)
	}
	return id, nil
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
