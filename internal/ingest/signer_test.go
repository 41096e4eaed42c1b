package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/tubely-api/internal/video"
)

func TestSigner_EmptyKeysStayEmpty(t *testing.T) {
	store := newMockStore()
	store.presignErr = errors.New("must not be called")
	signer := NewSigner(store, time.Minute)

	v := video.New(testOwner, "draft", "no assets yet")
	signed, err := signer.Sign(context.Background(), v)

	require.NoError(t, err)
	assert.Equal(t, v.ID, signed.ID)
	assert.Equal(t, "draft", signed.Title)
	assert.Empty(t, signed.VideoURL)
	assert.Empty(t, signed.ThumbnailURL)
}

func TestSigner_SignsBothKeysWithTTL(t *testing.T) {
	signer := NewSigner(newMockStore(), 15*time.Minute)

	v := video.New(testOwner, "t", "")
	v.VideoKey = "landscape/abc.mp4"
	v.ThumbnailKey = "thumbnails/def.png"

	signed, err := signer.Sign(context.Background(), v)
	require.NoError(t, err)

	assert.Equal(t, "https://objects.test/landscape/abc.mp4?X-Amz-Expires=900", signed.VideoURL)
	assert.Equal(t, "https://objects.test/thumbnails/def.png?X-Amz-Expires=900", signed.ThumbnailURL)
	assert.Equal(t, "landscape/abc.mp4", v.VideoKey, "record keeps the key")
}

func TestSigner_Error(t *testing.T) {
	store := newMockStore()
	store.presignErr = errors.New("no credentials")

	v := video.New(testOwner, "t", "")
	v.VideoKey = "other/abc.mp4"

	_, err := NewSigner(store, time.Minute).Sign(context.Background(), v)
	assert.ErrorContains(t, err, "other/abc.mp4")
}

func TestNewSigner_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultSignedURLTTL, NewSigner(newMockStore(), 0).TTL())
	assert.Equal(t, DefaultSignedURLTTL, NewSigner(newMockStore(), -time.Second).TTL())
}
