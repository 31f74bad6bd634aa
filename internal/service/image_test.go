package service

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/validation"
)

func TestImageUploadAndOpen(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	img, err := env.images.Upload(ctx, alice, bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(len(pngBytes)), img.Size)
	assert.Equal(t, alice.ID, *img.UploaderID)

	meta, rc, err := env.images.Open(ctx, img.ID)
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
	assert.Equal(t, img.StorageKey, meta.StorageKey)

	_, ok, err := env.images.RedirectURL(ctx, img.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = env.images.Open(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestImageUploadRejects(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	var vErr validation.Error

	_, err := env.images.Upload(ctx, alice, bytes.NewReader([]byte("#!/bin/sh\necho hi")))
	assert.ErrorAs(t, err, &vErr)

	big := append(append([]byte{}, pngBytes...), make([]byte, 1<<20)...)
	_, err = env.images.Upload(ctx, alice, bytes.NewReader(big))
	assert.ErrorAs(t, err, &vErr)

	_, err = env.images.Upload(ctx, nil, bytes.NewReader(pngBytes))
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
