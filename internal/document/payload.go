package document

import "encoding/json"

// Payload shapes for the four artifact kinds. The collection store treats
// payloads as opaque bytes; these types define the content the editor
// actually produces and give tests and handlers something concrete to build.

// GraphNode is one node in a visual script graph.
type GraphNode struct {
	ID    string            `json:"id"`
	Type  string            `json:"type"`
	X     float64           `json:"x"`
	Y     float64           `json:"y"`
	Props map[string]string `json:"props,omitempty"`
}

// GraphLink connects an output port to an input port.
type GraphLink struct {
	From     string `json:"from"`
	FromPort string `json:"from_port"`
	To       string `json:"to"`
	ToPort   string `json:"to_port"`
}

// ScriptGraph is the payload of a script artifact.
type ScriptGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// WeaponDef is the payload of a weapon artifact: a settings block keyed the
// way weapon KeyValues files are.
type WeaponDef struct {
	BaseClass string            `json:"base_class,omitempty"`
	Settings  map[string]string `json:"settings,omitempty"`
}

// UILayout is the payload of a UI artifact.
type UILayout struct {
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Source   string `json:"source,omitempty"`
	Elements []UIElement `json:"elements,omitempty"`
}

// UIElement is one placed widget in a layout.
type UIElement struct {
	ID   string  `json:"id"`
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Text string  `json:"text,omitempty"`
}

// LocalizationTable is the payload of a localization artifact.
type LocalizationTable struct {
	Language string            `json:"language"`
	Tokens   map[string]string `json:"tokens,omitempty"`
}

// MustPayload marshals v into the opaque payload form. It panics only on
// unmarshalable values, which none of the payload types above are.
func MustPayload(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic("document: unmarshalable payload: " + err.Error())
	}
	return b
}

// EmptyScriptGraph returns the payload a freshly seeded script starts with.
func EmptyScriptGraph() json.RawMessage {
	return MustPayload(ScriptGraph{Nodes: []GraphNode{}, Links: []GraphLink{}})
}
