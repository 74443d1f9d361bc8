package r2client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	full := Config{Endpoint: "https://x.r2.cloudflarestorage.com", AccessKeyID: "id", SecretKey: "secret", BucketName: "gems"}
	require.NoError(t, full.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint"},
		{"access key", func(c *Config) { c.AccessKeyID = "" }, "access key"},
		{"secret", func(c *Config) { c.SecretKey = "" }, "secret"},
		{"bucket", func(c *Config) { c.BucketName = "" }, "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := full
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_RejectsIncompleteConfig(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), Config{Endpoint: "https://x"})
	require.Error(t, err)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"no such key", &types.NoSuchKey{}, true},
		{"not found", &types.NotFound{}, true},
		{"generic api 404", &smithy.GenericAPIError{Code: "NotFound"}, true},
		{"wrapped", fmt.Errorf("get: %w", &smithy.GenericAPIError{Code: "NoSuchKey"}), true},
		{"http 404", &smithyhttp.ResponseError{Response: &smithyhttp.Response{Response: &http.Response{StatusCode: 404}}}, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isNotFound(tt.err))
		})
	}
}

func TestTrimETag(t *testing.T) {
	t.Parallel()

	quoted := `"abc123"`
	assert.Equal(t, "abc123", trimETag(&quoted))
	assert.Empty(t, trimETag(nil))
}

func TestCompressDecompress(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	srcPath := filepath.Join(tmpDir, "qreport.csv")
	compressedPath := srcPath + CompressedSuffix
	decompressedPath := filepath.Join(tmpDir, "roundtrip.csv")

	testData := "Course ID,Rating\n" + strings.Repeat("ECON 10A,4.5\n", 500)
	require.NoError(t, os.WriteFile(srcPath, []byte(testData), 0o644))

	require.NoError(t, CompressFile(srcPath, compressedPath))

	srcInfo, err := os.Stat(srcPath)
	require.NoError(t, err)
	compressedInfo, err := os.Stat(compressedPath)
	require.NoError(t, err)
	assert.Less(t, compressedInfo.Size(), srcInfo.Size())

	compressed, err := os.ReadFile(compressedPath)
	require.NoError(t, err)
	require.NoError(t, DecompressStream(bytes.NewReader(compressed), decompressedPath))

	got, err := os.ReadFile(decompressedPath)
	require.NoError(t, err)
	assert.Equal(t, testData, string(got))
}

func TestCompressFile_MissingSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	err := CompressFile(filepath.Join(dir, "absent.csv"), filepath.Join(dir, "out.zst"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecompressStream_InvalidData(t *testing.T) {
	t.Parallel()

	dst := filepath.Join(t.TempDir(), "out.csv")
	err := DecompressStream(strings.NewReader("not zstd"), dst)
	require.Error(t, err)
}
