package dataset

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectGetter struct {
	content string
	calls   int
}

func (f *fakeObjectGetter) GetObject(_ context.Context, _ *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.content))}, nil
}

// TestS3Fetcher_FetchAndCache checks the object lands under the cache dir
// and that a second fetch reuses the cached copy without a round trip.
func TestS3Fetcher_FetchAndCache(t *testing.T) {
	getter := &fakeObjectGetter{content: "0\t1\n1\t2\n"}
	fetcher := &S3Fetcher{client: getter, logger: discardLogger()}
	cacheDir := t.TempDir()

	local, err := fetcher.Fetch(context.Background(), "s3://datasets/amazon/amazon0302.txt", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cacheDir, "amazon0302.txt"), local)

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, getter.content, string(data))
	assert.Equal(t, 1, getter.calls)

	again, err := fetcher.Fetch(context.Background(), "s3://datasets/amazon/amazon0302.txt", cacheDir)
	require.NoError(t, err)
	assert.Equal(t, local, again)
	assert.Equal(t, 1, getter.calls, "cached fetch must not hit S3 again")
}

// TestParseS3URL covers the selector forms Resolve accepts and rejects.
func TestParseS3URL(t *testing.T) {
	bucket, key, err := parseS3URL("s3://my-bucket/path/to/edges.txt.gz")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/edges.txt.gz", key)

	for _, bad := range []string{"s3://", "s3://bucket-only", "s3://bucket/"} {
		_, _, err := parseS3URL(bad)
		assert.Error(t, err, bad)
	}
}

// TestResolve_LocalPathPassthrough checks non-S3 selectors come back
// untouched.
func TestResolve_LocalPathPassthrough(t *testing.T) {
	path, err := Resolve(context.Background(), "/data/amazon0302.txt", t.TempDir(), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "/data/amazon0302.txt", path)
	assert.False(t, IsS3URL("/data/amazon0302.txt"))
	assert.True(t, IsS3URL("s3://b/k"))
}
