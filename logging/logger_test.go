package logging_test

import (
	"testing"

	"github.com/civicpulse/mayoralert/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)

	return logging.NewFromZap(zap.New(core)), logs
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		level    string
		encoding string
		wantErr  string
	}{
		{name: "json info", level: "info", encoding: logging.EncodingJSON},
		{name: "console debug", level: "debug", encoding: logging.EncodingConsole},
		{name: "invalid level", level: "loud", encoding: logging.EncodingJSON, wantErr: "invalid log level"},
		{name: "invalid encoding", level: "info", encoding: "xml", wantErr: "unknown log encoding"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := logging.New(tt.level, tt.encoding)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.NotNil(t, logger.Zap())
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	t.Parallel()

	logger, logs := newObservedLogger(zapcore.InfoLevel)

	logger.Debug("hidden")
	logger.Debugf("hidden %d", 1)
	logger.Info("shown")
	logger.Infof("shown %d", 2)
	logger.Error("failed")
	logger.Errorf("failed %s", "again")

	require.Equal(t, 4, logs.Len())
	assert.Equal(t, 0, logs.FilterMessage("hidden").Len())
	assert.Equal(t, 1, logs.FilterMessage("shown 2").Len())
	assert.Equal(t, 1, logs.FilterMessage("failed again").Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.FilterMessage("failed").All()[0].Level)
}

func TestLogger_WithFields(t *testing.T) {
	t.Parallel()

	logger, logs := newObservedLogger(zapcore.DebugLevel)

	logger.WithField("alert_id", "a1").WithFields(map[string]any{"page": 2, "limit": 10}).Info("listed")

	require.Equal(t, 1, logs.Len())

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "a1", fields["alert_id"])
	assert.EqualValues(t, 2, fields["page"])
	assert.EqualValues(t, 10, fields["limit"])
}
