package s3_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tally"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	s3store "github.com/xraph/tally/store/s3"
)

// fakeS3 is an in-memory stand-in for the bucket.
type fakeS3 struct {
	objects map[string][]byte
	putErr  error
	puts    int
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts++
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != "books" {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	s := s3store.New(fake, "books", "")

	require.NoError(t, s.Ping(ctx))

	_, err := s.Load(ctx)
	assert.True(t, errors.Is(err, tally.ErrDocumentNotFound))

	doc := document.Default()
	doc.Customers = append(doc.Customers, &customer.Customer{ID: id.NewCustomerID(), Name: "A", Status: customer.StatusActive})
	require.NoError(t, s.Save(ctx, doc))
	assert.Contains(t, fake.objects, "books/sub_manager_db.json")

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Customers, 1)
	assert.Equal(t, doc.Customers[0].ID, got.Customers[0].ID)
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")

	err := s3store.New(fake, "books", "k").Save(ctx, document.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")

	assert.Error(t, s3store.New(fake, "missing", "k").Ping(ctx))

	fake.objects["books/k"] = []byte("[]")
	_, err = s3store.New(fake, "books", "k").Load(ctx)
	assert.True(t, errors.Is(err, document.ErrMalformed))
}

func TestOpenRequiresBucket(t *testing.T) {
	_, err := s3store.Open(context.Background(), s3store.Config{})
	assert.Error(t, err)
}
