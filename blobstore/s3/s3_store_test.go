package s3

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/flashmat/blobstore"
)

func keyIs(key string) func(*s3.HeadObjectInput) bool {
	return func(in *s3.HeadObjectInput) bool { return aws.ToString(in.Key) == key }
}

func TestStore_Open(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "prefix")

	t.Run("NotFound", func(t *testing.T) {
		client.On("HeadObject", mock.Anything, mock.MatchedBy(keyIs("prefix/missing"))).
			Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "missing")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		client.On("HeadObject", mock.Anything, mock.MatchedBy(keyIs("prefix/A.data"))).
			Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(100)}, nil).Once()

		b, err := store.Open(context.Background(), "A.data")
		require.NoError(t, err)
		assert.Equal(t, int64(100), b.Size())
	})

	client.AssertExpectations(t)
}

func TestBlob_ReadAtRange(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "")

	client.On("HeadObject", mock.Anything, mock.Anything).
		Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(10)}, nil).Once()
	client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return aws.ToString(in.Range) == "bytes=6-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("6789"))}, nil).Once()

	b, err := store.Open(context.Background(), "blob")
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := b.ReadAt(context.Background(), buf, 6)
	assert.Equal(t, 4, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "6789", string(buf[:n]))

	_, err = b.ReadAt(context.Background(), buf, 10)
	assert.ErrorIs(t, err, io.EOF)

	client.AssertExpectations(t)
}

func TestStore_PutAndDelete(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root")

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "root/A.index" && aws.ToInt64(in.ContentLength) == 3
	})).Return(&s3.PutObjectOutput{}, nil).Once()
	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "root/A.index"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "A.index", []byte("abc")))
	require.NoError(t, store.Delete(context.Background(), "A.index"))

	client.AssertExpectations(t)
}

func TestStore_CreateUploadsOnClose(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root")

	var got []byte
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "root/A.data"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		got, _ = io.ReadAll(in.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	w, err := store.Create(context.Background(), "A.data")
	require.NoError(t, err)
	_, err = w.Write([]byte("row block"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())
	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), io.ErrClosedPipe)

	assert.Equal(t, "row block", string(got))
	client.AssertExpectations(t)
}

func TestStore_ListPagination(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "bucket", "root/")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil && aws.ToString(in.Prefix) == "root/A"
	})).Return(&s3.ListObjectsV2Output{
		Contents:              []types.Object{{Key: aws.String("root/A.index")}},
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "next"
	})).Return(&s3.ListObjectsV2Output{
		Contents:    []types.Object{{Key: aws.String("root/A.data")}},
		IsTruncated: aws.Bool(false),
	}, nil).Once()

	names, err := store.List(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.data", "A.index"}, names)

	client.AssertExpectations(t)
}

func TestIntegration_S3Store(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	ctx := context.Background()
	store, err := NewFromConfig(ctx, bucket, "flashmat-test/")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, "probe", []byte("hello")))
	data, err := blobstore.ReadAll(ctx, store, "probe")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	require.NoError(t, store.Delete(ctx, "probe"))
}
