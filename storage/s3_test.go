package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	objects map[string][]byte
	times   map[string]time.Time
	failDel bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, times: map[string]time.Time{}}
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	if _, ok := f.times[key]; !ok {
		f.times[key] = time.Now()
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key), LastModified: aws.Time(f.times[key])})
		}
	}
	return out, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.failDel {
		return nil, errors.New("access denied")
	}
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestUploadReturnsLink(t *testing.T) {
	fake := newFakeObjects()
	b := &Bucket{Client: fake, Name: "backups", URL: "http://minio:9000/"}

	link, err := b.Upload(context.Background(), "snapshots/a.json.gz", "application/gzip", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://minio:9000/backups/snapshots/a.json.gz", link)
	assert.Equal(t, []byte("x"), fake.objects["snapshots/a.json.gz"])
}

func TestRotateKeepsNewest(t *testing.T) {
	fake := newFakeObjects()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, key := range []string{"snapshots/1", "snapshots/2", "snapshots/3", "other/x"} {
		fake.objects[key] = []byte{}
		fake.times[key] = base.Add(time.Duration(i) * time.Hour)
	}
	b := &Bucket{Client: fake, Name: "backups"}

	deleted, err := b.Rotate(context.Background(), "snapshots/", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/1"}, deleted)
	assert.Contains(t, fake.objects, "snapshots/2")
	assert.Contains(t, fake.objects, "snapshots/3")
	assert.Contains(t, fake.objects, "other/x")
}

func TestRotateNothingToDo(t *testing.T) {
	fake := newFakeObjects()
	fake.objects["snapshots/1"] = nil
	b := &Bucket{Client: fake, Name: "backups"}

	deleted, err := b.Rotate(context.Background(), "snapshots/", 4)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}

func TestRotateDeleteError(t *testing.T) {
	fake := newFakeObjects()
	fake.failDel = true
	fake.objects["snapshots/1"] = nil
	fake.objects["snapshots/2"] = nil
	b := &Bucket{Client: fake, Name: "backups"}

	_, err := b.Rotate(context.Background(), "snapshots/", 1)
	assert.ErrorContains(t, err, "access denied")
}
