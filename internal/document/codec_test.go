package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forgeerrors "github.com/r5vtools/forge/internal/errors"
)

func buildDocument(t *testing.T) *Document {
	t.Helper()
	doc := New("attrition", "1.4.0")
	doc.Meta.Author = "someone"
	doc.Meta.ModID = "attrition"
	doc.Export = ExportSettings{OutputDir: "out", CompressOutput: true}

	scripts := doc.Col(KindScript)
	patrol := scripts.CreateArtifact("ai/patrol.nut", MustPayload(ScriptGraph{
		Nodes: []GraphNode{{ID: "n1", Type: "entry", X: 10, Y: 20}},
		Links: []GraphLink{},
	}))
	scripts.CreateFolder("ai")
	scripts.CreateFolder("ai/behaviors")

	weapons := doc.Col(KindWeapon)
	smg := weapons.CreateArtifact("weapons/smg", MustPayload(WeaponDef{
		BaseClass: "smg",
		Settings:  map[string]string{"damage_near_value": "15"},
	}))
	weapons.CreateFolder("weapons")

	doc.Col(KindUI).CreateArtifact("menus/pause.rui", MustPayload(UILayout{Width: 1920, Height: 1080}))
	doc.Col(KindLocalization).CreateArtifact("english", MustPayload(LocalizationTable{
		Language: "english",
		Tokens:   map[string]string{"TITLE": "Attrition"},
	}))

	doc.Sel.SetActive(KindScript, patrol.ID)
	doc.Sel.SetActive(KindWeapon, smg.ID)
	return doc
}

func TestCodec_RoundTrip(t *testing.T) {
	doc := buildDocument(t)

	data, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestCodec_RoundTrip_FreshDocument(t *testing.T) {
	doc := New("fresh", "1.0.0")

	data, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestCodec_RoundTrip_EmptyFoldersSurvive(t *testing.T) {
	doc := New("fresh", "1.0.0")
	doc.Col(KindWeapon).CreateFolder("weapons/empty")
	doc.Col(KindUI).CreateFolder("menus")

	data, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"weapons/empty"}, back.Col(KindWeapon).FolderList())
	assert.Equal(t, []string{"menus"}, back.Col(KindUI).FolderList())
}

func TestCodec_RejectsMalformedJSON(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	assert.ErrorIs(t, err, forgeerrors.ErrInvalidDocumentFormat)
}

func TestCodec_RejectsMissingShape(t *testing.T) {
	doc := buildDocument(t)
	valid, err := Marshal(doc)
	require.NoError(t, err)

	strip := func(field string) []byte {
		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(valid, &m))
		delete(m, field)
		out, err := json.Marshal(m)
		require.NoError(t, err)
		return out
	}

	for _, field := range []string{"metadata", "settings", "scripts", "weapons", "ui", "localization"} {
		t.Run("missing "+field, func(t *testing.T) {
			_, err := Unmarshal(strip(field))
			assert.ErrorIs(t, err, forgeerrors.ErrInvalidDocumentFormat)
		})
	}
}

func TestCodec_RejectsUnsupportedVersion(t *testing.T) {
	doc := buildDocument(t)
	valid, err := Marshal(doc)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(valid, &m))

	m["format_version"] = json.RawMessage("99")
	data, err := json.Marshal(m)
	require.NoError(t, err)
	_, err = Unmarshal(data)
	assert.ErrorIs(t, err, forgeerrors.ErrInvalidDocumentFormat)

	m["format_version"] = json.RawMessage("0")
	data, err = json.Marshal(m)
	require.NoError(t, err)
	_, err = Unmarshal(data)
	assert.ErrorIs(t, err, forgeerrors.ErrInvalidDocumentFormat)
}

func TestCodec_RejectsEmptyScriptCollection(t *testing.T) {
	doc := buildDocument(t)
	valid, err := Marshal(doc)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(valid, &m))
	m["scripts"] = json.RawMessage("[]")
	data, err := json.Marshal(m)
	require.NoError(t, err)

	_, err = Unmarshal(data)
	assert.ErrorIs(t, err, forgeerrors.ErrInvalidDocumentFormat)
}

func TestCodec_RepairsDanglingSelection(t *testing.T) {
	doc := buildDocument(t)
	doc.Sel.ActiveWeapon = "no-such-id"

	data, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Col(KindWeapon).First().ID, back.Sel.ActiveWeapon)
}
