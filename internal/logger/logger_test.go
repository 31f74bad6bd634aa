package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false, "")

	l.Debug("hidden")
	l.Info("question created", "question_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "question created", line["msg"])
	assert.EqualValues(t, 7, line["question_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewDevelopmentWritesDebugText(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true, "")

	l.Debug("tag resolved", "name", "go")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "name=go")
}

func TestFromContext(t *testing.T) {
	assert.Same(t, Log, FromContext(context.Background()))

	var buf bytes.Buffer
	scoped := New(&buf, false, "").With("request_id", "abc")
	ctx := WithContext(context.Background(), scoped)

	FromContext(ctx).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"abc"`)
}
