package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
)

// mockRoundTripper fakes the GetObject and ListObjectsV2 calls of a path-style
// bucket.
type mockRoundTripper struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    []string
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range m.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(m.objects[k]))
		}
		b.WriteString("</ListBucketResult>")
		return xmlResponse(http.StatusOK, b.String()), nil
	}

	if req.Method == http.MethodGet {
		m.gets = append(m.gets, key)
		if body, ok := m.objects[key]; ok {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader(body)),
				Header:     http.Header{"Content-Length": {fmt.Sprintf("%d", len(body))}},
			}, nil
		}
		return xmlResponse(http.StatusNotFound, `<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`), nil
	}

	return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

func xmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": {"application/xml"}},
	}
}

func newMockS3(t *testing.T, prefix string) (*S3, *mockRoundTripper) {
	t.Helper()
	rt := &mockRoundTripper{objects: make(map[string][]byte)}
	src, err := NewS3(context.Background(), S3Config{
		Bucket:          "anatomy",
		Prefix:          prefix,
		Region:          "us-east-1",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
	})
	require.NoError(t, err)
	return src, rt
}

func TestS3Fetch(t *testing.T) {
	src, rt := newMockS3(t, "templates/")
	rt.objects["templates/human/nervous.yaml.sz"] = anatomyspec.Pack([]byte("nerve:\n  - id: Brain\n    regions: [Head]\n"))

	doc, err := src.Fetch(context.Background(), "human", "nervous")
	require.NoError(t, err)
	assert.Equal(t, anatomyspec.Key{Template: "human", Network: "nervous"}, doc.Key())
	assert.Equal(t, 1, doc.Count())

	assert.Equal(t, []string{
		"templates/human/nervous.json",
		"templates/human/nervous.yaml",
		"templates/human/nervous.yml",
		"templates/human/nervous.json.sz",
		"templates/human/nervous.yaml.sz",
	}, rt.gets, "extensions are tried in preference order")
}

func TestS3FetchNotFound(t *testing.T) {
	src, _ := newMockS3(t, "")

	_, err := src.Fetch(context.Background(), "human", "nervous")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestS3List(t *testing.T) {
	src, rt := newMockS3(t, "templates")
	rt.objects["templates/human/nervous.json"] = []byte(nervousJSON)
	rt.objects["templates/human/circulation.yaml"] = []byte("{}")
	rt.objects["templates/mouse/nervous.json.sz"] = []byte{}
	rt.objects["templates/human/notes.txt"] = []byte{}
	rt.objects["other/human/nervous.json"] = []byte{}

	keys, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []anatomyspec.Key{
		{Template: "human", Network: "circulation"},
		{Template: "human", Network: "nervous"},
		{Template: "mouse", Network: "nervous"},
	}, keys)
}
