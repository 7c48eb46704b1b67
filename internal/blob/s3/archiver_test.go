package s3blob

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	path        string
	contentType string
	data        []byte
}

func (f *fakePutter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	f.path = path
	f.contentType = contentType
	var err error
	f.data, err = io.ReadAll(data)
	return err
}

func TestArchiveRun(t *testing.T) {
	fp := &fakePutter{}
	a := NewRunArchiver(fp)
	a.now = func() time.Time { return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC) }

	payload := map[string]any{
		"strategy":  "t1_baseline_flat",
		"accepted":  3,
		"rejected":  17,
		"bankroll":  987.5,
		"positions": []string{"a", "b", "c"},
	}
	require.NoError(t, a.ArchiveRun(context.Background(), "run-42", payload))

	require.Equal(t, "runs/2025/06/15/run-42.json", fp.path)
	require.Equal(t, "application/json", fp.contentType)

	var got map[string]any
	require.NoError(t, json.Unmarshal(fp.data, &got))
	require.Equal(t, "t1_baseline_flat", got["strategy"])
	require.EqualValues(t, 3, got["accepted"])
}
