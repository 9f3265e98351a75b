package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/piezosystemjena/nv200-go/lantronix"
	"github.com/piezosystemjena/nv200-go/logger"
	"github.com/piezosystemjena/nv200-go/nv200"
	"github.com/piezosystemjena/nv200-go/transport"
)

// Flags selects which scans Discover runs and whether candidates are enriched.
type Flags uint

const (
	// DetectSerial scans local FTDI serial adapters.
	DetectSerial Flags = 1 << 0
	// DetectNetwork scans the network via the Lantronix discovery broadcast.
	DetectNetwork Flags = 1 << 1
	// EnrichDeviceInfo queries each detected candidate for its identity and
	// actuator details, discarding candidates that do not identify as NV200
	// controllers.
	EnrichDeviceInfo Flags = 1 << 2

	// DetectAll runs both scans without enrichment.
	DetectAll = DetectSerial | DetectNetwork
)

// Enrichment keys of DetectedDevice.DeviceInfo.
const (
	InfoKeyActuatorName   = "actuator_name"
	InfoKeyActuatorSerial = "actuator_serial"
)

// DetectedDevice describes one controller found by a scan. It is immutable
// once returned; whoever constructs a command client from it owns the next
// step (see NewTransport).
type DetectedDevice struct {
	// Transport is the link kind the device was found on.
	Transport transport.Kind
	// Identifier is the serial port name or the IPv4 address.
	Identifier string
	// MAC is the device MAC address; only set for network devices.
	MAC string
	// DeviceInfo carries enrichment results, e.g. actuator name and serial.
	// It is nil unless EnrichDeviceInfo was requested.
	DeviceInfo map[string]string
}

// String implements fmt.Stringer.
func (d DetectedDevice) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s device %s", d.Transport, d.Identifier)
	if d.MAC != "" {
		fmt.Fprintf(&sb, " (MAC %s)", d.MAC)
	}
	if name, ok := d.DeviceInfo[InfoKeyActuatorName]; ok {
		fmt.Fprintf(&sb, " actuator %s", name)
		if serial, ok := d.DeviceInfo[InfoKeyActuatorSerial]; ok {
			fmt.Fprintf(&sb, " #%s", serial)
		}
	}

	return sb.String()
}

// NewTransport creates the matching transport for a detected device. The
// caller typically wraps it in an nv200.Device.
func NewTransport(d DetectedDevice) (transport.Transport, error) {
	switch d.Transport {
	case transport.KindTelnet:
		return transport.NewTelnet(transport.WithHost(d.Identifier)), nil
	case transport.KindSerial:
		return transport.NewSerial(transport.WithSerialPort(d.Identifier)), nil
	default:
		return nil, fmt.Errorf("discovery: unsupported transport kind %d", d.Transport)
	}
}

// transportFactory builds the transport an enrichment round trip connects
// through. Tests swap it for an in-memory transport.
var transportFactory = NewTransport

// Discover runs the scans selected by flags and returns all detected devices,
// network results before serial results.
//
// The two scans run concurrently; within one scan, results follow the order
// the platform enumerated interfaces or ports. Failures of individual
// candidates are filtered out of the result set, never propagated, so partial
// network or hardware flakiness degrades coverage instead of aborting the
// scan.
func Discover(ctx context.Context, flags Flags) ([]DetectedDevice, error) {
	var (
		wg            sync.WaitGroup
		networkResult []DetectedDevice
		serialResult  []DetectedDevice
	)

	if flags&DetectNetwork != 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			networkResult = scanNetwork(ctx)
		}()
	}

	if flags&DetectSerial != 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serialResult = scanSerial(ctx)
		}()
	}

	wg.Wait()

	devices := append(networkResult, serialResult...)

	if flags&EnrichDeviceInfo != 0 {
		devices = enrichAll(ctx, devices)
	}

	return devices, nil
}

func scanNetwork(ctx context.Context) []DetectedDevice {
	found, err := lantronix.Discover(ctx, lantronix.DefaultTimeout)
	if err != nil {
		logger.Warn("network scan failed", "error", err)
		return nil
	}

	devices := make([]DetectedDevice, 0, len(found))
	for _, dev := range found {
		devices = append(devices, DetectedDevice{
			Transport:  transport.KindTelnet,
			Identifier: dev.IP,
			MAC:        dev.MAC,
		})
	}

	return devices
}

// scanSerial probes every FTDI candidate port concurrently. A port becomes a
// DetectedDevice only if its identity probe succeeds; probe failures are
// silent and never delay sibling probes.
func scanSerial(ctx context.Context) []DetectedDevice {
	ports, err := transport.CandidatePorts()
	if err != nil {
		logger.Warn("serial scan failed", "error", err)
		return nil
	}

	detected := make([]bool, len(ports))

	var wg sync.WaitGroup
	for i, port := range ports {
		wg.Add(1)
		go func(idx int, port string) {
			defer wg.Done()
			detected[idx] = probeSerialPort(ctx, port)
		}(i, port)
	}
	wg.Wait()

	var devices []DetectedDevice
	for i, port := range ports {
		if detected[i] {
			devices = append(devices, DetectedDevice{
				Transport:  transport.KindSerial,
				Identifier: port,
			})
		}
	}

	return devices
}

func probeSerialPort(ctx context.Context, port string) bool {
	tr := transport.NewSerial(transport.WithSerialPort(port))
	if err := tr.Connect(ctx); err != nil {
		logger.Debug("serial probe connect failed", "port", port, "error", err)
		return false
	}
	defer tr.Close()

	probeCtx, cancel := context.WithTimeout(ctx, transport.DefaultProbeTimeout)
	defer cancel()

	return transport.Probe(probeCtx, tr)
}

// enrichAll runs one enrichment round trip per candidate, concurrently.
// Candidates whose connection fails or whose identity does not match the
// NV200 device family are discarded; each round trip is isolated, so one
// failure never cancels or fails the others.
func enrichAll(ctx context.Context, devices []DetectedDevice) []DetectedDevice {
	enriched := make([]*DetectedDevice, len(devices))

	var wg sync.WaitGroup
	for i, dev := range devices {
		wg.Add(1)
		go func(idx int, dev DetectedDevice) {
			defer wg.Done()
			if result, ok := enrich(ctx, dev); ok {
				enriched[idx] = &result
			}
		}(i, dev)
	}
	wg.Wait()

	kept := make([]DetectedDevice, 0, len(devices))
	for _, dev := range enriched {
		if dev != nil {
			kept = append(kept, *dev)
		}
	}

	return kept
}

func enrich(ctx context.Context, dev DetectedDevice) (DetectedDevice, bool) {
	tr, err := transportFactory(dev)
	if err != nil {
		return dev, false
	}

	client := nv200.NewDevice(tr)
	if err := client.Connect(ctx); err != nil {
		logger.Debug("enrichment connect failed", "device", dev.Identifier, "error", err)
		return dev, false
	}
	defer client.Close()

	id, err := client.DeviceID(ctx)
	if err != nil || !strings.HasPrefix(id, nv200.DeviceIDPrefix) {
		logger.Debug("enrichment identity mismatch", "device", dev.Identifier, "id", id)
		return dev, false
	}

	info := make(map[string]string, 2)
	if name, err := client.ActuatorName(ctx); err == nil {
		info[InfoKeyActuatorName] = name
	}
	if serial, err := client.ActuatorSerialNumber(ctx); err == nil {
		info[InfoKeyActuatorSerial] = serial
	}
	dev.DeviceInfo = info

	return dev, true
}
