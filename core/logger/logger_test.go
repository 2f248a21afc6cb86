package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rusk-dataflow/rusk/core/logger"
)

func TestNewDefaultsToJSONInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf))

	log.Debug("should not appear")
	log.Info("hello", slog.String("k", "v"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestWithDevelopmentUsesTextAndDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithDevelopment("rusk-test"), logger.WithOutput(&buf))

	log.Debug("debug visible")

	out := buf.String()
	assert.Contains(t, out, "debug visible")
	assert.Contains(t, out, "service=rusk-test")
}

func TestWithProductionEmitsJSONAndServiceAttr(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithProduction("controlplane"), logger.WithOutput(&buf))

	log.Info("started")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "controlplane", rec["service"])
}

func TestWithContextExtractorsInjectsAttribute(t *testing.T) {
	var buf bytes.Buffer
	type ctxKey struct{}

	extractor := func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(ctxKey{}).(string)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("request_id", v), true
	}

	log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(extractor))

	ctx := context.WithValue(context.Background(), ctxKey{}, "abc-123")
	log.InfoContext(ctx, "handled request")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "abc-123", rec["request_id"])
}

func TestWithContextExtractorsOmitsAttributeWhenAbsent(t *testing.T) {
	var buf bytes.Buffer
	type ctxKey struct{}

	extractor := func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(ctxKey{}).(string)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("request_id", v), true
	}

	log := logger.New(logger.WithOutput(&buf), logger.WithContextExtractors(extractor))
	log.InfoContext(context.Background(), "no request id here")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	_, present := rec["request_id"]
	assert.False(t, present)
}

func TestWithAttrAppliesToEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithAttr(slog.String("region", "us-east")))

	log.Info("one")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "us-east", rec["region"])
}

func TestErrorAttrHelperReturnsEmptyForNil(t *testing.T) {
	assert.Equal(t, slog.Attr{}, logger.Error(nil))

	attr := logger.Error(assertError{"boom"})
	assert.Equal(t, "error", attr.Key)
}

type assertError struct{ msg string }

func (e assertError) Error() string { return e.msg }
