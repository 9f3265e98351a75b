package nv200

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"github.com/piezosystemjena/nv200-go/transport"
)

// configFixture answers every configuration parameter query.
var configFixture = map[string]string{
	"desc":    "desc,TRITOR100SG\r\n",
	"acserno": "acserno,85533\r\n",
	"sr":      "sr,250\r\n",
	"setlpon": "setlpon,1\r\n",
	"setlpf":  "setlpf,200\r\n",
	"kp":      "kp,0.05\r\n",
	"kd":      "kd,0\r\n",
	"ki":      "ki,40\r\n",
	"notchf":  "notchf,200\r\n",
	"notchb":  "notchb,100\r\n",
	"notchon": "notchon,0\r\n",
	"poslpon": "poslpon,0\r\n",
	"poslpf":  "poslpf,1000\r\n",
	"modsrc":  "modsrc,0\r\n",
	"cl":      "cl,1\r\n",
	"pcf":     "pcf,0\r\n",
}

func TestExportActuatorConfig(t *testing.T) {
	handler := newEchoHandler(configFixture)
	mock := transport.NewMockTransport(handler.handle)
	dev := NewDevice(mock, WithDefaultTimeout(50*time.Millisecond))
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	dir := t.TempDir()
	path, err := dev.ExportActuatorConfig(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "actuator_conf_TRITOR100SG_85533.ini"), path)

	cfg, err := ini.Load(path)
	require.NoError(t, err)

	section, err := cfg.GetSection("Actuator Configuration")
	require.NoError(t, err)
	assert.Equal(t, "TRITOR100SG", section.Key("desc").String())
	assert.Equal(t, "250", section.Key("sr").String())
	assert.Equal(t, "0.05", section.Key("kp").String())
	assert.Equal(t, "1", section.Key("cl").String())
}

func TestExportActuatorConfigExplicitFilename(t *testing.T) {
	handler := newEchoHandler(configFixture)
	mock := transport.NewMockTransport(handler.handle)
	dev := NewDevice(mock, WithDefaultTimeout(50*time.Millisecond))
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	dir := t.TempDir()
	path, err := dev.ExportActuatorConfig(context.Background(), dir, "backup.ini")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "backup.ini"), path)
}

func TestImportActuatorConfig(t *testing.T) {
	content := `[Actuator Configuration]
desc = TRITOR100SG
acserno = 85533
sr = 250
kp = 0.05
cl = 1
unrelated = 42
`
	dir := t.TempDir()
	path := filepath.Join(dir, "actuator.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	handler := newEchoHandler(map[string]string{
		"sr": "sr,250\r\n",
		"kp": "kp,0.05\r\n",
		"cl": "cl,1\r\n",
	})
	mock := transport.NewMockTransport(handler.handle)
	dev := NewDevice(mock, WithDefaultTimeout(50*time.Millisecond))
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	require.NoError(t, dev.ImportActuatorConfig(context.Background(), path))

	cmds := mock.Commands()
	assert.Contains(t, cmds, "sr,250")
	assert.Contains(t, cmds, "kp,0.05")
	assert.Contains(t, cmds, "cl,1")
	// Identity keys and unknown keys are never written back.
	assert.NotContains(t, cmds, "desc,TRITOR100SG")
	assert.NotContains(t, cmds, "acserno,85533")
	assert.NotContains(t, cmds, "unrelated,42")
}

func TestImportActuatorConfigMissingSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Other]\nsr = 1\n"), 0o644))

	dev := NewDevice(transport.NewMockTransport(nil))
	require.NoError(t, dev.Connect(context.Background()))
	defer dev.Close()

	err := dev.ImportActuatorConfig(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actuator Configuration")
}

func TestImportActuatorConfigMissingFile(t *testing.T) {
	dev := NewDevice(transport.NewMockTransport(nil))

	err := dev.ImportActuatorConfig(context.Background(), filepath.Join(t.TempDir(), "absent.ini"))
	assert.Error(t, err)
}
