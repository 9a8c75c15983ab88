package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var info, errs bytes.Buffer
	logger := New(&info, &errs)

	logger.Info("Loaded 3 cuts", "cuts")
	assert.Regexp(t, `^\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\] \[cuts\] Loaded 3 cuts\n$`, info.String())

	info.Reset()
	logger.Warn("Drift profile hgainF7 missing", "drift")
	assert.Regexp(t, `^\[[^]]+\] \[WARN\] \[drift\] Drift profile hgainF7 missing\n$`, info.String())
	assert.Empty(t, errs.String())

	logger.Error("error opening file")
	var record map[string]any
	require.NoError(t, json.Unmarshal(errs.Bytes(), &record))
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, "error opening file", record["msg"])
}
