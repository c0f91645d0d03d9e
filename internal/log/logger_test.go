// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggersEmitAnnotatedEvents(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test-svc"})

	logger := WithComponent("probe")
	logger.Info().Str(FieldPath, "/dev/dri/renderD128").Msg("checked")

	ctx := ContextWithRequestID(context.Background(), "req-9")
	ctxLogger := WithComponentFromContext(ctx, "api")
	ctxLogger.Warn().Msg("slow request")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))

	assert.Equal(t, "probe", first["component"])
	assert.Equal(t, "test-svc", first["service"])
	assert.Equal(t, "/dev/dri/renderD128", first[FieldPath])
	assert.Equal(t, "checked", first["message"])

	assert.Equal(t, "api", second["component"])
	assert.Equal(t, "req-9", second[FieldRequestID])
	assert.Equal(t, "warn", second["level"])
}

func TestRequestIDFromContextAbsent(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(nil))
	assert.Equal(t, "r1", RequestIDFromContext(ContextWithRequestID(context.Background(), "r1")))
}
