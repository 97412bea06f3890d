package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kyiku/caritas-study-back/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror(m *testutil.MockS3Client, prefix string) *S3Mirror {
	mirror := NewS3Mirror(m, "test-bucket", prefix)
	mirror.now = func() time.Time { return time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC) }
	return mirror
}

func TestNewS3Mirror_Prefix(t *testing.T) {
	tests := []struct {
		name       string
		prefix     string
		wantLatest string
	}{
		{name: "デフォルト", prefix: "", wantLatest: "problem-pool/latest.json"},
		{name: "スラッシュ補完", prefix: "backups", wantLatest: "backups/latest.json"},
		{name: "スラッシュあり", prefix: "env/prod/", wantLatest: "env/prod/latest.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mirror := NewS3Mirror(testutil.NewMockS3Client(), "b", tt.prefix)
			assert.Equal(t, tt.wantLatest, mirror.LatestKey())
			assert.Equal(t, "b", mirror.Bucket())
		})
	}
}

func TestS3Mirror_Snapshot(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		putErr  error
		wantErr bool
	}{
		{
			name: "正常系: スナップショット保存",
			data: []byte(`{"math":{}}`),
		},
		{
			name:    "異常系: 空データ",
			data:    nil,
			wantErr: true,
		},
		{
			name:    "異常系: アップロード失敗",
			data:    []byte(`{}`),
			putErr:  errors.New("access denied"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockS3 := testutil.NewMockS3Client()
			mockS3.PutErr = tt.putErr
			mirror := newTestMirror(mockS3, "")

			key, err := mirror.Upload(context.Background(), tt.data)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, mockS3.UploadedData)
				return
			}

			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(key, "problem-pool/snapshots/20260401T093000Z-"))
			assert.True(t, strings.HasSuffix(key, ".json"))
			assert.Equal(t, tt.data, mockS3.UploadedData[key])
			assert.Equal(t, tt.data, mockS3.UploadedData["problem-pool/latest.json"])
		})
	}
}

func TestS3Mirror_Latest(t *testing.T) {
	mockS3 := testutil.NewMockS3Client()
	mirror := newTestMirror(mockS3, "")

	_, err := mirror.Latest(context.Background())
	var notFound *testutil.ObjectNotFoundError
	assert.True(t, errors.As(err, &notFound))

	require.NoError(t, mirror.Snapshot(context.Background(), []byte("v1")))
	require.NoError(t, mirror.Snapshot(context.Background(), []byte("v2")))

	data, err := mirror.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)
}

func TestS3Mirror_ListAndGet(t *testing.T) {
	mockS3 := testutil.NewMockS3Client()
	mockS3.Objects = map[string][]byte{
		"problem-pool/snapshots/20260101T000000Z-aaaa.json": []byte("old"),
		"problem-pool/snapshots/20260301T000000Z-bbbb.json": []byte("new"),
		"problem-pool/snapshots/readme.txt":                 []byte("x"),
		"other/snapshots/20260101T000000Z-cccc.json":        []byte("other"),
	}
	mirror := newTestMirror(mockS3, "")

	keys, err := mirror.ListSnapshots(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"problem-pool/snapshots/20260101T000000Z-aaaa.json",
		"problem-pool/snapshots/20260301T000000Z-bbbb.json",
	}, keys)

	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "フルキー", key: "problem-pool/snapshots/20260101T000000Z-aaaa.json", want: "old"},
		{name: "ファイル名のみ", key: "20260301T000000Z-bbbb.json", want: "new"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := mirror.Get(context.Background(), tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}

	_, err = mirror.Get(context.Background(), "missing.json")
	assert.Error(t, err)
}

func TestS3Mirror_ListError(t *testing.T) {
	mockS3 := testutil.NewMockS3Client()
	mockS3.ListErr = errors.New("throttled")
	mirror := newTestMirror(mockS3, "")

	_, err := mirror.ListSnapshots(context.Background())
	assert.Error(t, err)
}
