package imagestore

import (
	"context"
	"errors"
	"mime/multipart"
	"os"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicii-ro/directory/internal/config"
)

type fakeAPI struct {
	params uploader.UploadParams
	resp   *uploader.UploadResult
	err    error
}

func (f *fakeAPI) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.params = p
	return f.resp, f.err
}

func tempFile(t *testing.T) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "img")
	require.NoError(t, err)
	_, _ = f.WriteString("GIF89a")
	t.Cleanup(func() { _ = f.Close() })
	return f, &multipart.FileHeader{Filename: "logo.gif", Size: 6}
}

func TestUpload_Success(t *testing.T) {
	fake := &fakeAPI{resp: &uploader.UploadResult{SecureURL: "https://res.cloudinary.com/x/logo.gif"}}
	c := &Cloudinary{api: fake, folder: "romani-servicii-de"}

	f, h := tempFile(t)
	res := c.Upload(context.Background(), f, h)

	require.True(t, res.OK())
	assert.Equal(t, "https://res.cloudinary.com/x/logo.gif", res.URL)
	assert.Equal(t, "romani-servicii-de", fake.params.Folder)
	assert.Equal(t, "c_limit,w_600,h_600/q_auto,f_auto", fake.params.Transformation)
	assert.Equal(t, "image", fake.params.ResourceType)
}

func TestUpload_NoFile(t *testing.T) {
	c := &Cloudinary{api: &fakeAPI{}}
	res := c.Upload(context.Background(), nil, nil)
	assert.True(t, res.Empty())
	assert.Empty(t, res.URL)

	f, _ := tempFile(t)
	assert.True(t, c.Upload(context.Background(), f, &multipart.FileHeader{}).Empty())
}

func TestUpload_Failures(t *testing.T) {
	f, h := tempFile(t)

	c := &Cloudinary{api: &fakeAPI{err: errors.New("dial tcp: timeout")}}
	assert.Equal(t, FailureUpload, c.Upload(context.Background(), f, h).Failure)

	c = &Cloudinary{api: &fakeAPI{resp: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid image file"}}}}
	res := c.Upload(context.Background(), f, h)
	assert.Equal(t, FailureRejected, res.Failure)
	assert.EqualError(t, res.Err, "Invalid image file")
	assert.Empty(t, res.URL)
}

func TestNew_WithoutCredentials(t *testing.T) {
	c, err := New(config.Cloudinary{Folder: "romani-servicii-de"})
	require.NoError(t, err)

	f, h := tempFile(t)
	assert.Equal(t, FailureNotConfigured, c.Upload(context.Background(), f, h).Failure)
}
