package services

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"dubber/internal/store"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}

func (m *mockPublisher) Close() error { return nil }

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Store(ctx context.Context, obj store.BlobObject) (string, error) {
	if obj.Body != nil {
		_, _ = io.Copy(io.Discard, obj.Body)
	}
	args := m.Called(ctx, obj.Name)
	return args.String(0), args.Error(1)
}

func (m *mockBlobStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
