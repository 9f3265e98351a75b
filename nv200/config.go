package nv200

import (
	"context"
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// configSection is the INI section actuator configurations are stored under.
const configSection = "Actuator Configuration"

// exportKeys is the fixed set of parameters an actuator configuration export
// captures, in file order. The first two identify the actuator and are not
// written back on import.
var exportKeys = []string{
	"desc",
	"acserno",
	"sr",
	"setlpon",
	"setlpf",
	"kp",
	"kd",
	"ki",
	"notchf",
	"notchb",
	"notchon",
	"poslpon",
	"poslpf",
	"modsrc",
	"cl",
	"pcf",
}

// importKeys is the subset of exportKeys written back to the device on import.
var importKeys = map[string]struct{}{
	"sr":      {},
	"setlpon": {},
	"setlpf":  {},
	"kp":      {},
	"kd":      {},
	"ki":      {},
	"notchf":  {},
	"notchb":  {},
	"notchon": {},
	"poslpon": {},
	"poslpf":  {},
	"modsrc":  {},
	"cl":      {},
	"pcf":     {},
}

// ExportActuatorConfig reads the actuator configuration parameters from the
// device and writes them to an INI file.
//
// When filename is empty, a default of the form
// "actuator_conf_<desc>_<acserno>.ini" is used; when path is empty the file is
// written to the current working directory. It returns the full path of the
// written file.
func (d *Device) ExportActuatorConfig(ctx context.Context, path, filename string) (string, error) {
	values := make(map[string]string, len(exportKeys))
	for _, key := range exportKeys {
		value, err := d.ReadParameterString(ctx, key)
		if err != nil {
			return "", fmt.Errorf("nv200: read %q for export: %w", key, err)
		}
		values[key] = value
	}

	cfg := ini.Empty()
	section, err := cfg.NewSection(configSection)
	if err != nil {
		return "", err
	}
	for _, key := range exportKeys {
		if _, err := section.NewKey(key, values[key]); err != nil {
			return "", err
		}
	}

	if filename == "" {
		filename = fmt.Sprintf("actuator_conf_%s_%s.ini", values["desc"], values["acserno"])
	}
	fullPath := filename
	if path != "" {
		fullPath = filepath.Join(path, filename)
	}

	if err := cfg.SaveTo(fullPath); err != nil {
		return "", fmt.Errorf("nv200: save actuator config: %w", err)
	}
	d.logger.Info("actuator configuration exported", "path", fullPath)

	return fullPath, nil
}

// ImportActuatorConfig reads an actuator configuration INI file and writes the
// contained parameters to the device. Keys outside the known import set are
// ignored.
func (d *Device) ImportActuatorConfig(ctx context.Context, path string) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("nv200: load actuator config: %w", err)
	}

	section, err := cfg.GetSection(configSection)
	if err != nil {
		return fmt.Errorf("nv200: section %q not found in %s", configSection, path)
	}

	for _, key := range section.Keys() {
		if _, ok := importKeys[key.Name()]; !ok {
			continue
		}
		if _, err := d.Write(ctx, key.Name(), key.Value()); err != nil {
			return fmt.Errorf("nv200: import %q: %w", key.Name(), err)
		}
	}

	return nil
}
