package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/askroute/internal/model"
	"github.com/ppiankov/askroute/internal/worker"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	require.NoError(t, setDefaults(v, model.DefaultConfig()))
	v.SetEnvPrefix("ASKROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func TestDecodeConfig_Defaults(t *testing.T) {
	cfg, err := decodeConfig(newTestViper(t))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultConfig(), cfg)
}

func TestDecodeConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ASKROUTE_SERVER_PORT", "9001")
	t.Setenv("ASKROUTE_DATA_DEBOUNCE", "2s")
	t.Setenv("ASKROUTE_SERVER_CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("ASKROUTE_NATS_ENABLED", "true")
	t.Setenv("ASKROUTE_SERVER_TRUSTED_PROXIES", "10.0.0.0/8,192.168.0.0/16")

	cfg, err := decodeConfig(newTestViper(t))
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Data.Debounce)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.Server.TrustedProxies)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "askroute.ask", cfg.NATS.Subject)
}

func TestDecodeConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "engine:\n  default_top_k: 5\ncache:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	v := newTestViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Engine.DefaultTopK)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 8000, cfg.Server.Port, "keys absent from the file keep their defaults")
}

func TestInitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".askroute", "config.yaml")

	require.NoError(t, initConfigFile(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# askroute Configuration File"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, *model.DefaultConfig(), cfg)

	err = initConfigFile(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	assert.NoError(t, initConfigFile(path, true))
}

func TestWriteBatchResults(t *testing.T) {
	results := []*worker.AskResult{
		{Index: 0, Question: "mobiscore", Result: &model.Result{Answer: "a", Source: model.SourceGeo}},
		{Index: 1, Question: "capital of France", Result: &model.Result{Answer: "b", Source: model.SourceUnknown}},
		{Index: 2, Question: "broken", Error: errors.New("boom")},
	}

	var buf bytes.Buffer
	counts, err := writeBatchResults(&buf, results)
	require.NoError(t, err)

	assert.Equal(t, 1, counts[model.SourceGeo])
	assert.Equal(t, 1, counts[model.SourceUnknown])
	assert.Equal(t, 1, counts[""])

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var first, last batchLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	assert.Equal(t, "mobiscore", first.Question)
	assert.Equal(t, model.SourceGeo, first.Result.Source)
	assert.Equal(t, "boom", last.Error)
	assert.Nil(t, last.Result)
}

func TestAskLocal(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Data.GeoFile = "../../data/mock_geo_data.csv"
	cfg.Data.RegulationFile = "../../data/mock_regulation_data.txt"

	result, err := askLocal(cfg, zap.NewNop(), "What does Art. 0.4 say about trees?", 3)
	require.NoError(t, err)
	assert.Equal(t, model.SourceRegulation, result.Source)
	assert.Equal(t, "art. 0.4", result.Meta.MatchedArticle)

	_, err = askLocal(cfg, zap.NewNop(), "   ", 3)
	assert.Error(t, err)
}

func TestNewLogger_OneShotRaisesLevel(t *testing.T) {
	cfg := model.DefaultConfig()

	logger, err := newLogger(cfg, true)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	cfg.Output.Verbose = true
	logger, err = newLogger(cfg, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}
