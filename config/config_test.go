package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetSingleton() {
	instance = nil
	once = sync.Once{}
}

func TestLoadConfigCreatesFileWithDefaults(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	path := filepath.Join(t.TempDir(), "config.json")
	cfg := LoadConfig(path)
	assert.Equal(t, Defaults(), *cfg)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk AppConfig
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, Defaults(), onDisk)
}

func TestLoadConfigReadsExistingFile(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"port":"9000","height":15,"keepscore":true}`), 0644))

	cfg := LoadConfig(path)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 15, cfg.Height)
	assert.True(t, cfg.KeepScore)
	// 文件里没有的字段保留默认值
	assert.Equal(t, 11, cfg.Width)
	assert.Equal(t, 20, cfg.Blocksize)

	assert.Equal(t, "9000", GetConfigValue("port"))
	assert.Equal(t, 15, GetConfigValue("height").(int))
	assert.Equal(t, "", GetConfigValue("nope"))
}

func TestGetBeforeLoad(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	assert.Equal(t, Defaults(), Get())
	assert.Equal(t, 20, GetConfigValue("basespeed"))
	assert.Equal(t, 200, GetConfigValue("maxheight"))
	assert.Equal(t, 200, GetConfigValue("maxwidth"))
}
