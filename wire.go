package patchbay

import (
	"encoding/json"
	"fmt"
)

// The wire format is the seeding/persistence shape of the tree. Each level
// carries its matrix and a children array; anchor payloads live under
// "data". A GraphNode's children are its input anchor followed by its
// output anchors, in order.

type wireVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wireRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type wireRoot struct {
	ID       string       `json:"id"`
	Width    float64      `json:"width,omitempty"`
	Height   float64      `json:"height,omitempty"`
	Children []wireWindow `json:"children"`
}

type wireWindow struct {
	Matrix   [6]float64  `json:"matrix"`
	Children []wirePlane `json:"children"`
}

type wirePlane struct {
	Matrix   [6]float64 `json:"matrix"`
	NextKey  int        `json:"nextKey,omitempty"`
	Children []wireNode `json:"children"`
}

type wireNode struct {
	Key      int          `json:"key"`
	Matrix   [6]float64   `json:"matrix"`
	Data     wireNodeData `json:"data"`
	Children []wireAnchor `json:"children"`
}

type wireNodeData struct {
	ClickBox wireRect `json:"clickBox"`
	Title    string   `json:"title"`
	Selected bool     `json:"selected,omitempty"`
	Active   bool     `json:"active,omitempty"`
}

type wireAnchor struct {
	Key    *int           `json:"key,omitempty"`
	Matrix [6]float64     `json:"matrix"`
	Data   wireAnchorData `json:"data"`
}

type wireAnchorData struct {
	ClickBox  wireRect `json:"clickBox"`
	ParentKey int      `json:"parentKey"`
	LinkedTo  *int     `json:"linkedTo,omitempty"`
	To        *wireVec `json:"to,omitempty"`
}

// LoadTree parses a JSON seed into a scene tree.
func LoadTree(jsonData []byte) (Root, error) {
	var wr wireRoot
	if err := json.Unmarshal(jsonData, &wr); err != nil {
		return Root{}, fmt.Errorf("parse tree: %w", err)
	}
	if len(wr.Children) != 1 {
		return Root{}, fmt.Errorf("parse tree: root needs exactly one window, got %d", len(wr.Children))
	}
	ww := wr.Children[0]
	if len(ww.Children) != 1 {
		return Root{}, fmt.Errorf("parse tree: window needs exactly one plane, got %d", len(ww.Children))
	}
	wp := ww.Children[0]

	nodes := make([]GraphNode, 0, len(wp.Children))
	for _, wn := range wp.Children {
		n, err := decodeNode(wn)
		if err != nil {
			return Root{}, err
		}
		nodes = append(nodes, n)
	}

	return Root{
		ID:     wr.ID,
		Width:  wr.Width,
		Height: wr.Height,
		Window: Window{
			M: Mat(ww.Matrix),
			Plane: Plane{
				M:       Mat(wp.Matrix),
				NextKey: wp.NextKey,
				Nodes:   nodes,
			},
		},
	}, nil
}

func decodeNode(wn wireNode) (GraphNode, error) {
	if len(wn.Children) < 2 {
		return GraphNode{}, fmt.Errorf("parse tree: node %d needs an input anchor and at least one output anchor", wn.Key)
	}
	in := wn.Children[0]
	if in.Key != nil {
		return GraphNode{}, fmt.Errorf("parse tree: node %d: first child must be the input anchor", wn.Key)
	}

	n := GraphNode{
		Key:      wn.Key,
		M:        Mat(wn.Matrix),
		Box:      Rect(wn.Data.ClickBox),
		Title:    wn.Data.Title,
		Selected: wn.Data.Selected,
		Active:   wn.Data.Active,
		In: InEdge{
			M:         Mat(in.Matrix),
			Box:       Rect(in.Data.ClickBox),
			ParentKey: in.Data.ParentKey,
		},
	}

	outs := make([]OutEdge, 0, len(wn.Children)-1)
	for _, wa := range wn.Children[1:] {
		if wa.Key == nil {
			return GraphNode{}, fmt.Errorf("parse tree: node %d: output anchor missing key", wn.Key)
		}
		if wa.Data.LinkedTo != nil && wa.Data.To != nil {
			return GraphNode{}, fmt.Errorf("parse tree: node %d anchor %d: linkedTo and to are mutually exclusive", wn.Key, *wa.Key)
		}
		o := OutEdge{
			Key:       *wa.Key,
			M:         Mat(wa.Matrix),
			Box:       Rect(wa.Data.ClickBox),
			ParentKey: wa.Data.ParentKey,
			LinkedTo:  NoLink,
		}
		if wa.Data.LinkedTo != nil {
			o.LinkedTo = *wa.Data.LinkedTo
		}
		if wa.Data.To != nil {
			o.To = Vec2(*wa.Data.To)
			o.HasTo = true
		}
		outs = append(outs, o)
	}
	n.Outs = outs
	return n, nil
}

// SaveTree serializes a tree into the wire format.
func SaveTree(r Root) ([]byte, error) {
	wp := wirePlane{
		Matrix:   [6]float64(r.Window.Plane.M),
		NextKey:  r.Window.Plane.NextKey,
		Children: make([]wireNode, 0, len(r.Window.Plane.Nodes)),
	}
	for _, n := range r.Window.Plane.Nodes {
		wp.Children = append(wp.Children, encodeNode(n))
	}
	wr := wireRoot{
		ID:     r.ID,
		Width:  r.Width,
		Height: r.Height,
		Children: []wireWindow{{
			Matrix:   [6]float64(r.Window.M),
			Children: []wirePlane{wp},
		}},
	}
	return json.MarshalIndent(wr, "", "  ")
}

func encodeNode(n GraphNode) wireNode {
	wn := wireNode{
		Key:    n.Key,
		Matrix: [6]float64(n.M),
		Data: wireNodeData{
			ClickBox: wireRect(n.Box),
			Title:    n.Title,
			Selected: n.Selected,
			Active:   n.Active,
		},
		Children: make([]wireAnchor, 0, len(n.Outs)+1),
	}
	wn.Children = append(wn.Children, wireAnchor{
		Matrix: [6]float64(n.In.M),
		Data: wireAnchorData{
			ClickBox:  wireRect(n.In.Box),
			ParentKey: n.In.ParentKey,
		},
	})
	for _, o := range n.Outs {
		key := o.Key
		wa := wireAnchor{
			Key:    &key,
			Matrix: [6]float64(o.M),
			Data: wireAnchorData{
				ClickBox:  wireRect(o.Box),
				ParentKey: o.ParentKey,
			},
		}
		if o.Resolved() {
			to := o.LinkedTo
			wa.Data.LinkedTo = &to
		} else if o.HasTo {
			v := wireVec(o.To)
			wa.Data.To = &v
		}
		wn.Children = append(wn.Children, wa)
	}
	return wn
}
