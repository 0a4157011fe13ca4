package anatomyspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/dd0wney/cluso-anatomy/pkg/circulation"
	_ "github.com/dd0wney/cluso-anatomy/pkg/nervous"
	"github.com/dd0wney/cluso-anatomy/pkg/network"
)

func TestParseFileBareForm(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "human", "circulation.json"))
	require.NoError(t, err)
	require.NoError(t, doc.Bind(Key{Template: "human", Network: "circulation"}))

	assert.Equal(t, "human", doc.Template)
	assert.Len(t, doc.Subsystems["arterial"], 1, "single root object becomes one root")
	assert.Len(t, doc.Subsystems["venous"], 4)
	assert.Equal(t, 13, doc.Count())

	n, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, 4, n.MaxCycle())

	femoral, err := n.Lookup("LeftCommonFemoralArtery")
	require.NoError(t, err)
	down, err := n.Downstream(femoral)
	require.NoError(t, err)
	assert.Equal(t, []string{"LeftFemoralVein", "LeftGreatSaphenousVein"}, n.Names(down))
}

func TestParseFileYAML(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "human", "nervous.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Key{Template: "human", Network: "nervous"}, doc.Key())
	assert.NotEmpty(t, doc.Description)
	require.NoError(t, doc.Validate())

	n, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, 5, n.Len())
	assert.Equal(t, 2, n.MaxCycle())
}

func TestParseCompressed(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "human", "nervous.yaml"))
	require.NoError(t, err)

	packed := Pack(raw)
	doc, err := ParseNamed("nervous.yaml.sz", packed)
	require.NoError(t, err)
	assert.Equal(t, "nervous", doc.Network)

	_, err = ParseNamed("nervous.yaml.sz", raw)
	assert.Error(t, err, "uncompressed data behind a .sz name should fail")
}

func TestParseListFormWithBridgesKey(t *testing.T) {
	data := []byte(`{
		"template": "mouse",
		"network": "circulation",
		"subsystems": {
			"arterial": [{"id": "A", "regions": ["Torso"], "bridges": ["V1"], "bridge": ["V2"]}],
			"venous": [{"id": "V1", "regions": ["Torso"]}, {"id": "V2", "regions": ["Torso"]}]
		}
	}`)

	doc, err := Parse(data, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"V1", "V2"}, doc.Subsystems["arterial"][0].Bridges)

	n, err := doc.Build()
	require.NoError(t, err)
	assert.Len(t, n.PostJunctionNodes(), 2)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"invalid json", `{"arterial": [`, FormatJSON},
		{"invalid yaml", "subsystems: [unclosed", FormatYAML},
		{"extra keys beside subsystems", `{"subsystems": {}, "arterial": []}`, FormatJSON},
		{"wrong root type", `{"arterial": "Aorta"}`, FormatJSON},
		{"template not a string", `{"template": 7, "arterial": []}`, FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.ErrorIs(t, err, network.ErrMalformedSpec)
		})
	}

	_, err := Parse([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name       string
		format     Format
		compressed bool
		wantErr    bool
	}{
		{"circulation.json", FormatJSON, false, false},
		{"nervous.YML", FormatYAML, false, false},
		{"nervous.yaml.sz", FormatYAML, true, false},
		{"circulation.txt", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, compressed, err := DetectFormat(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, tt.compressed, compressed)
		})
	}
}

func TestMarshalRoundTripBuildsSameNetwork(t *testing.T) {
	doc, err := ParseFile(filepath.Join("testdata", "human", "circulation.json"))
	require.NoError(t, err)
	require.NoError(t, doc.Bind(Key{Template: "human", Network: "circulation"}))

	first, err := doc.Build()
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML} {
		data, err := Marshal(doc, format)
		require.NoError(t, err)

		again, err := Parse(data, format)
		require.NoError(t, err)
		second, err := again.Build()
		require.NoError(t, err, "format %s", format)
		assert.Equal(t, first.Stats(), second.Stats(), "format %s", format)
	}
}
