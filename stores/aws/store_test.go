package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"artisan-canvas/stores/storetest"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// mockS3 is an in-memory bucket.
type mockS3 struct {
	objects map[string][]byte
	mu      sync.Mutex
	err     error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: make(map[string][]byte)}
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Bucket+"/"+*in.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	delete(m.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestStore(t *testing.T) {
	storetest.Run(t, NewStoreWithClient(newMockS3(), "designs", "artisan"))
}

func TestStore_UsesPrefix(t *testing.T) {
	mock := newMockS3()
	s := NewStoreWithClient(mock, "designs", "artisan")

	if err := s.Put(context.Background(), "auth/abc", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if _, ok := mock.objects["designs/artisan/auth/abc"]; !ok {
		t.Errorf("object not stored under prefix: %v", mock.objects)
	}
}

func TestStore_PropagatesErrors(t *testing.T) {
	mock := newMockS3()
	mock.err = errors.New("access denied")
	s := NewStoreWithClient(mock, "designs", "")

	if _, err := s.Get(context.Background(), "auth/abc"); err == nil || !errors.Is(err, mock.err) {
		t.Errorf("Get() error = %v, want wrapped access denied", err)
	}
	if err := s.Put(context.Background(), "auth/abc", nil); err == nil {
		t.Error("Put() should fail")
	}
}
