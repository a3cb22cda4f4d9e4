package filestore_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"civicledger/backend/internal/filestore"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "after.jpg", filestore.SafeName("after.jpg"))
	assert.Equal(t, "passwd", filestore.SafeName("../../etc/passwd"))
	assert.Equal(t, "evil.png", filestore.SafeName(`C:\Users\x\evil.png`))
	assert.Equal(t, "my_photo_1_.jpg", filestore.SafeName("my photo (1).jpg"))
	assert.Equal(t, "upload", filestore.SafeName(".."))
}

func TestResolutionKey_Layout(t *testing.T) {
	key := filestore.ResolutionKey("COMPLAINT1", "after.jpg")

	assert.True(t, strings.HasPrefix(key, "complaints/COMPLAINT1/resolution_proofs/"))
	assert.True(t, strings.HasSuffix(key, "-after.jpg"))
	assert.NotEqual(t, key, filestore.ResolutionKey("COMPLAINT1", "after.jpg"))
}

func TestDetectImage(t *testing.T) {
	ct, ok := filestore.DetectImage(pngHeader)
	assert.True(t, ok)
	assert.Equal(t, "image/png", ct)

	_, ok = filestore.DetectImage([]byte("just some text"))
	assert.False(t, ok)
}

func TestLocalStore_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := filestore.NewLocalStore(root)
	require.NoError(t, err)

	ref, err := s.Save(ctx, "complaints/C1/resolution_proofs/x-after.png", pngHeader, "image/png")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "complaints", "C1", "resolution_proofs", "x-after.png"))
	require.NoError(t, err)

	rc, err := s.Open(ctx, ref)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, pngHeader, got)

	require.NoError(t, s.Remove(ctx, ref))
	require.NoError(t, s.Remove(ctx, ref), "removing twice is fine")
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	s, err := filestore.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "../outside.txt", []byte("x"), "")
	assert.Error(t, err)
	_, err = s.Save(context.Background(), "/etc/passwd", []byte("x"), "")
	assert.Error(t, err)
}

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(aws.ToString(in.Bucket), aws.ToString(in.Key), aws.ToString(in.ContentType))
	return &s3.PutObjectOutput{}, args.Error(0)
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(aws.ToString(in.Bucket), aws.ToString(in.Key))
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(args.Get(0).([]byte)))}, args.Error(1)
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(aws.ToString(in.Bucket), aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, args.Error(0)
}

func TestS3Store_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	client := new(mockS3)
	s := filestore.NewS3StoreWithClient(client, "grievance-photos", "prod/")

	client.On("PutObject", "grievance-photos", "prod/complaints/C1/evidence/a.png", "image/png").Return(nil)
	client.On("GetObject", "grievance-photos", "prod/complaints/C1/evidence/a.png").Return(pngHeader, nil)
	client.On("DeleteObject", "grievance-photos", "prod/complaints/C1/evidence/a.png").Return(nil)

	ref, err := s.Save(ctx, "complaints/C1/evidence/a.png", pngHeader, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "complaints/C1/evidence/a.png", ref)

	rc, err := s.Open(ctx, ref)
	require.NoError(t, err)
	got, _ := io.ReadAll(rc)
	assert.Equal(t, pngHeader, got)

	require.NoError(t, s.Remove(ctx, ref))
	client.AssertExpectations(t)
}
