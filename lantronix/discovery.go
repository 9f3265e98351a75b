package lantronix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/piezosystemjena/nv200-go/logger"
)

// Lantronix XPort discovery protocol constants.
const (
	// DiscoveryPort is the UDP port of the Lantronix discovery protocol.
	DiscoveryPort = 30718

	// TelnetPort is the TCP port the XPort bridges to the device serial line.
	TelnetPort = 23

	// ReplySize is the exact size of a valid discovery reply datagram.
	ReplySize = 30

	// macOffset is the byte offset of the MAC address within a reply datagram.
	macOffset = 24

	// OUIPrefix is the vendor prefix of every Lantronix XPort MAC address.
	OUIPrefix = "00:80:A3"

	// DefaultTimeout is the reply collection window of a discovery scan.
	DefaultTimeout = 400 * time.Millisecond
)

// probePayload is the fixed discovery datagram understood by XPort modules.
var probePayload = []byte{0x00, 0x00, 0x00, 0xF6}

// ErrDeviceNotFound indicates that no device with the requested MAC address
// answered the discovery broadcast.
var ErrDeviceNotFound = errors.New("lantronix: device not found")

// DeviceInfo describes one XPort module that answered a discovery broadcast.
type DeviceInfo struct {
	// MAC is the module's MAC address, formatted "00:80:A3:XX:XX:XX".
	MAC string
	// IP is the module's IPv4 address as reported by the reply datagram source.
	IP string
}

// Discover broadcasts a discovery probe on every active IPv4 interface and
// collects the replies arriving within timeout.
//
// Interface scans run concurrently; the result is the union of all replies in
// interface enumeration order. Replies are not de-duplicated across interfaces,
// so a device reachable through several interfaces may appear more than once.
// A timeout of zero uses DefaultTimeout. Failure to scan one interface never
// fails the others; it only reduces coverage.
func Discover(ctx context.Context, timeout time.Duration) ([]DeviceInfo, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ips, err := activeInterfaceIPs()
	if err != nil {
		return nil, fmt.Errorf("lantronix: enumerate interfaces: %w", err)
	}

	results := make([][]DeviceInfo, len(ips))

	var wg sync.WaitGroup
	for i, ip := range ips {
		wg.Add(1)
		go func(idx int, localIP net.IP) {
			defer wg.Done()
			devices, scanErr := scanInterface(ctx, localIP, timeout)
			if scanErr != nil {
				logger.Debug("lantronix interface scan failed", "ip", localIP.String(), "error", scanErr)
				return
			}
			results[idx] = devices
		}(i, ip)
	}
	wg.Wait()

	var devices []DeviceInfo
	for _, r := range results {
		devices = append(devices, r...)
	}

	return devices, nil
}

// DiscoverByMAC scans the network and returns the IP address of the device with
// the given MAC address. The MAC comparison is case-insensitive.
//
// It returns ErrDeviceNotFound if no matching device answered within timeout.
func DiscoverByMAC(ctx context.Context, mac string, timeout time.Duration) (string, error) {
	devices, err := Discover(ctx, timeout)
	if err != nil {
		return "", err
	}

	target := strings.ToUpper(mac)
	for _, dev := range devices {
		if dev.MAC == target {
			return dev.IP, nil
		}
	}

	return "", fmt.Errorf("%w: MAC %s", ErrDeviceNotFound, target)
}

// scanInterface sends one discovery broadcast from localIP and collects every
// valid reply arriving within timeout.
func scanInterface(ctx context.Context, localIP net.IP, timeout time.Duration) ([]DeviceInfo, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: localIP, Port: DiscoveryPort})
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", localIP, err)
	}
	defer conn.Close()

	dst := &net.UDPAddr{IP: net.IPv4bcast, Port: DiscoveryPort}
	if _, err := conn.WriteToUDP(probePayload, dst); err != nil {
		return nil, fmt.Errorf("send broadcast: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	var devices []DeviceInfo
	buf := make([]byte, 1024)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			// The deadline ends the collection window; anything gathered so
			// far is a valid partial result.
			return devices, nil
		}
		if mac, ok := ParseReply(buf[:n]); ok {
			devices = append(devices, DeviceInfo{MAC: mac, IP: addr.IP.String()})
		}
		if ctx.Err() != nil {
			return devices, nil
		}
	}
}

// ParseReply validates a discovery reply datagram and extracts the MAC address.
//
// A valid reply is exactly ReplySize bytes long and carries a MAC with the
// Lantronix OUI prefix at macOffset. The returned MAC is upper-case,
// colon-separated.
func ParseReply(data []byte) (string, bool) {
	if len(data) != ReplySize {
		return "", false
	}

	mac := data[macOffset : macOffset+6]
	formatted := fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X",
		mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])

	if !strings.HasPrefix(formatted, OUIPrefix) {
		return "", false
	}

	return formatted, true
}

// activeInterfaceIPs returns one IPv4 address for every network interface that
// is up and not a loopback, in the order the platform enumerates them.
func activeInterfaceIPs() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				ips = append(ips, ip4)
				break
			}
		}
	}

	return ips, nil
}
