package mirror

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dbfiles/internal/common"
)

type apiError struct {
	code string
}

func (e *apiError) Error() string                 { return e.code }
func (e *apiError) ErrorCode() string             { return e.code }
func (e *apiError) ErrorMessage() string          { return e.code }
func (e *apiError) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// fakeS3 is an in-memory bucket. pageSize > 0 splits listings into pages.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	pageSize int
	putErr   error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NoSuchKey"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Key]
	if !ok {
		return nil, &apiError{code: "NotFound"}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := aws.ToString(in.Prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) && k > aws.ToString(in.ContinuationToken) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if f.pageSize > 0 && len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3_WriteReadStatDelete(t *testing.T) {
	fake := newFakeS3()
	s := NewS3(fake, "bucket", "/mirror/")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "a/b.txt", []byte("hello")))
	assert.Contains(t, fake.objects, "mirror/a/b.txt")

	got, err := s.Read(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	size, err := s.Stat(ctx, "a/b.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	require.NoError(t, s.Delete(ctx, "a/b.txt"))
	_, err = s.Read(ctx, "a/b.txt")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.Stat(ctx, "a/b.txt")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NoError(t, s.Delete(ctx, "a/b.txt"))
}

func TestS3_WriteError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("denied")
	s := NewS3(fake, "bucket", "")
	err := s.Write(context.Background(), "x", []byte("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestS3_WalkPaginatesAndStripsPrefix(t *testing.T) {
	fake := newFakeS3()
	fake.pageSize = 2
	fake.objects["other/x"] = []byte("x")
	s := NewS3(fake, "bucket", "m")
	ctx := context.Background()
	for _, k := range []string{"a", "b/c", "d", "e/f/g"} {
		require.NoError(t, s.Write(ctx, k, []byte(k)))
	}

	var keys []string
	require.NoError(t, s.Walk(ctx, func(key string) error {
		keys = append(keys, key)
		return nil
	}))
	assert.Equal(t, []string{"a", "b/c", "d", "e/f/g"}, keys)
}

func TestS3_WalkStop(t *testing.T) {
	fake := newFakeS3()
	s := NewS3(fake, "bucket", "")
	ctx := context.Background()
	require.NoError(t, s.Write(ctx, "a", nil))
	require.NoError(t, s.Write(ctx, "b", nil))

	var n int
	require.NoError(t, s.Walk(ctx, func(string) error {
		n++
		return ErrStopWalk
	}))
	assert.Equal(t, 1, n)
}

func TestIsS3NotFound(t *testing.T) {
	assert.True(t, isS3NotFound(&apiError{code: "NoSuchKey"}))
	assert.True(t, isS3NotFound(&apiError{code: "NotFound"}))
	assert.False(t, isS3NotFound(&apiError{code: "AccessDenied"}))
	assert.False(t, isS3NotFound(errors.New("plain")))
}

func TestNewS3FromOptions(t *testing.T) {
	_, err := NewS3FromOptions(context.Background(), S3Options{})
	require.Error(t, err)

	s, err := NewS3FromOptions(context.Background(), S3Options{
		Bucket:       "files",
		Prefix:       "mirror",
		Region:       "us-east-1",
		Endpoint:     "http://127.0.0.1:9000",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "files", s.bucket)
	assert.Equal(t, "mirror/x", s.key("x"))
}
