package s3

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/daybook/internal/backend"
	"github.com/dmitrijs2005/daybook/internal/models"
	"github.com/dmitrijs2005/daybook/internal/snapshot"
)

type fakeAPI struct {
	putCalls  int
	lastBody  []byte
	getResult *awss3.GetObjectOutput
	getErr    error
	headTime  *time.Time
	headErr   error
}

func (f *fakeAPI) PutObject(ctx context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	f.putCalls++
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.lastBody = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(ctx context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	return f.getResult, f.getErr
}

func (f *fakeAPI) HeadObject(ctx context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	return &awss3.HeadObjectOutput{LastModified: f.headTime}, nil
}

func completeConfig() Config {
	return Config{
		Region:          "us-east-1",
		Bucket:          "daybook",
		Key:             "snapshots/me.json",
		AccessKeyID:     "AK",
		SecretAccessKey: "SK",
	}
}

func newTestBackend(f *fakeAPI) *Backend {
	b := New(completeConfig())
	b.client = f
	return b
}

func TestIsAuthenticated(t *testing.T) {
	assert.True(t, New(completeConfig()).IsAuthenticated())

	cfg := completeConfig()
	cfg.SecretAccessKey = ""
	assert.False(t, New(cfg).IsAuthenticated())
}

func TestNotConfigured(t *testing.T) {
	b := New(Config{})
	_, err := b.Download(context.Background())
	assert.ErrorIs(t, err, backend.ErrNotConfigured)
	err = b.Upload(context.Background(), &snapshot.Snapshot{Version: snapshot.Version})
	assert.ErrorIs(t, err, backend.ErrNotConfigured)
}

func TestUpload_PutsEncodedSnapshot(t *testing.T) {
	f := &fakeAPI{}
	b := newTestBackend(f)

	rec := models.New(models.KindTask, "x", models.ProvenanceManual)
	snap := &snapshot.Snapshot{Version: snapshot.Version, Records: []*models.Record{rec}}
	require.NoError(t, b.Upload(context.Background(), snap))

	require.Equal(t, 1, f.putCalls)
	decoded, err := snapshot.Decode(f.lastBody)
	require.NoError(t, err)
	require.Len(t, decoded.Records, 1)
	assert.Equal(t, rec.ID, decoded.Records[0].ID)
}

func TestDownload_NoSuchKeyIsEmptySuccess(t *testing.T) {
	f := &fakeAPI{getErr: &types.NoSuchKey{}}
	b := newTestBackend(f)

	snap, err := b.Download(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestDownload_DecodesBody(t *testing.T) {
	src := &snapshot.Snapshot{Version: snapshot.Version}
	data, err := src.Encode()
	require.NoError(t, err)

	f := &fakeAPI{getResult: &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}}
	b := newTestBackend(f)

	snap, err := b.Download(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, snapshot.Version, snap.Version)
}

func TestRemoteModifiedTime(t *testing.T) {
	when := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeAPI{headTime: aws.Time(when)}
	b := newTestBackend(f)

	got, err := b.RemoteModifiedTime(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(when))

	f.headErr = &types.NotFound{}
	got, err = b.RemoteModifiedTime(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}
