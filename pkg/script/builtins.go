package script

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/hvackit/ductline/pkg/geom"
	"github.com/hvackit/ductline/pkg/graph"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms duct DSL source code before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: arc-run -> arc_run
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a
		// minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec2 wraps a geom.Point2D.
type sexpVec2 struct {
	vec geom.Point2D
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %.1f %.1f)", v.vec.X, v.vec.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a graph.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   graph.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(noderef %q)", n.name)
	}
	return fmt.Sprintf("(noderef %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpEdgeRef wraps a graph.EdgeID returned by run and arc-run.
type sexpEdgeRef struct {
	id graph.EdgeID
}

func (e *sexpEdgeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(edgeref %s)", e.id.Short())
}
func (e *sexpEdgeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a boolean from a Sexp.
func toBool(s zygo.Sexp) (bool, error) {
	if b, ok := s.(*zygo.SexpBool); ok {
		return b.Val, nil
	}
	return false, fmt.Errorf("expected bool, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_round) and plain strings.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toShape converts a keyword or string to a graph.DuctShape.
func toShape(s zygo.Sexp) (graph.DuctShape, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected shape keyword (:round, :rect): %w", err)
	}
	switch name {
	case "round":
		return graph.ShapeRound, nil
	case "rect":
		return graph.ShapeRect, nil
	}
	return 0, fmt.Errorf("invalid shape %q, expected round or rect", name)
}

// toVec2 extracts a Point2D from a sexpVec2.
func toVec2(s zygo.Sexp) (geom.Point2D, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	return geom.Point2D{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the duct DSL builtins into a zygomys
// environment. The builtins populate the provided DuctGraph during
// evaluation. Source code must be preprocessed with preprocessSource()
// before evaluation so that :keyword tokens are converted to
// recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, g *graph.DuctGraph) {
	// names maps script-visible node names to graph IDs so runs can
	// reference nodes declared earlier by name.
	names := make(map[string]graph.NodeID)

	// resolveNode accepts a node reference or a declared node name.
	resolveNode := func(s zygo.Sexp) (graph.NodeID, error) {
		switch v := s.(type) {
		case *sexpNodeRef:
			return v.id, nil
		case *zygo.SexpStr:
			if id, ok := names[v.S]; ok {
				return id, nil
			}
			return graph.ZeroNodeID, fmt.Errorf("no node named %q", v.S)
		}
		return graph.ZeroNodeID, fmt.Errorf("expected node reference or name, got %T (%s)", s, s.SexpString(nil))
	}

	// parseSection reads :shape/:diameter/:width/:height keywords.
	parseSection := func(pa kwArgs, op string) (graph.DuctShape, graph.DuctSize, error) {
		shape := graph.ShapeRound
		var size graph.DuctSize
		if v, ok := pa.kw["shape"]; ok {
			s, err := toShape(v)
			if err != nil {
				return 0, size, fmt.Errorf("%s: shape: %w", op, err)
			}
			shape = s
		}
		for _, dim := range []struct {
			key string
			dst *float64
		}{
			{"diameter", &size.Diameter},
			{"width", &size.Width},
			{"height", &size.Height},
		} {
			if v, ok := pa.kw[dim.key]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return 0, size, fmt.Errorf("%s: %s: %w", op, dim.key, err)
				}
				*dim.dst = f
			}
		}
		return shape, size, nil
	}

	// -----------------------------------------------------------------------
	// (vec2 100 250)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{vec: geom.Point2D{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (node "ahu" :at (vec2 0 0) :terminal true :equipment "AHU-1")
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)

		nodeName := ""
		if len(pa.positional) > 0 {
			s, err := toString(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node: name: %w", err)
			}
			nodeName = s
		}

		n := &graph.Node{ID: graph.NewNodeID()}
		if v, ok := pa.kw["at"]; ok {
			pos, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node: at: %w", err)
			}
			n.Position = pos
		}
		if v, ok := pa.kw["terminal"]; ok {
			b, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node: terminal: %w", err)
			}
			n.Terminal = b
		}
		if v, ok := pa.kw["equipment"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("node: equipment: %w", err)
			}
			n.Equipment = s
			n.Terminal = true
		}

		if nodeName != "" {
			if _, exists := names[nodeName]; exists {
				return zygo.SexpNull, fmt.Errorf("node: duplicate name %q", nodeName)
			}
			names[nodeName] = n.ID
		}
		g.AddNode(n)
		return &sexpNodeRef{id: n.ID, name: nodeName}, nil
	})

	// -----------------------------------------------------------------------
	// (run "ahu" "vav-1" :shape :rect :width 400 :height 200
	//      :via (list (vec2 500 0) (vec2 500 300)))
	// -----------------------------------------------------------------------
	env.AddFunction("run", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("run requires two node arguments")
		}
		a, err := resolveNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("run: from: %w", err)
		}
		b, err := resolveNode(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("run: to: %w", err)
		}
		shape, size, err := parseSection(pa, "run")
		if err != nil {
			return zygo.SexpNull, err
		}

		seg := &graph.SegmentedControl{}
		if v, ok := pa.kw["via"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("run: via: %w", err)
			}
			for _, item := range items {
				wp, err := toVec2(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("run: via entry: %w", err)
				}
				seg.Waypoints = append(seg.Waypoints, wp)
			}
		}

		c := &graph.Centerline{
			ID:        graph.NewEdgeID(),
			A:         a,
			B:         b,
			Curve:     graph.CurveSegmented,
			Shape:     shape,
			Size:      size,
			Segmented: seg,
		}
		g.AddEdge(c)
		return &sexpEdgeRef{id: c.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (arc-run "a" "b" :radius 450 :clockwise true :diameter 300)
	//
	// Note: registered as "arc_run" because zygomys does not support
	// hyphens in identifiers. The preprocessor converts arc-run to
	// arc_run in the source.
	// -----------------------------------------------------------------------
	env.AddFunction("arc_run", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("arc-run requires two node arguments")
		}
		a, err := resolveNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc-run: from: %w", err)
		}
		b, err := resolveNode(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc-run: to: %w", err)
		}
		shape, size, err := parseSection(pa, "arc-run")
		if err != nil {
			return zygo.SexpNull, err
		}

		v, ok := pa.kw["radius"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("arc-run: radius is required")
		}
		radius, err := toFloat64(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc-run: radius: %w", err)
		}
		arc := &graph.ArcControl{Radius: radius}
		if v, ok := pa.kw["clockwise"]; ok {
			cw, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc-run: clockwise: %w", err)
			}
			arc.Clockwise = cw
		}

		c := &graph.Centerline{
			ID:    graph.NewEdgeID(),
			A:     a,
			B:     b,
			Curve: graph.CurveArc,
			Shape: shape,
			Size:  size,
			Arc:   arc,
		}
		g.AddEdge(c)
		return &sexpEdgeRef{id: c.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (layout "floor-2" (node ...) (run ...) ...)
	//
	// Grouping form for readable scripts; children are evaluated for
	// their graph effects, layout itself only checks they are node or
	// run references.
	// -----------------------------------------------------------------------
	env.AddFunction("layout", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("layout requires a name argument")
		}
		layoutName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layout: name: %w", err)
		}
		for i := 1; i < len(args); i++ {
			switch args[i].(type) {
			case *sexpNodeRef, *sexpEdgeRef:
			default:
				return zygo.SexpNull, fmt.Errorf("layout: child %d: expected node or run, got %T (%s)",
					i, args[i], args[i].SexpString(nil))
			}
		}
		return &zygo.SexpStr{S: layoutName}, nil
	})
}
