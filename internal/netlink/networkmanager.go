package netlink

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/godbus/dbus/v5"
)

const (
	nmService = "org.freedesktop.NetworkManager"
	nmPath    = dbus.ObjectPath("/org/freedesktop/NetworkManager")

	nmActiveStateActivated   = 2
	nmActiveStateDeactivated = 4
)

var errActivationFailed = errors.New("activation deactivated")

// NetworkManager joins WiFi through the NetworkManager daemon on the system
// bus. Each Associate adds a volatile profile that NetworkManager drops when
// the connection goes down.
type NetworkManager struct {
	conn   *dbus.Conn
	object func(dbus.ObjectPath) dbus.BusObject
	device dbus.ObjectPath
	active dbus.ObjectPath
}

// DialNetworkManager connects to the system bus and resolves iface, for
// example "wlan0", to a NetworkManager device.
func DialNetworkManager(iface string) (*NetworkManager, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}

	nm, err := newNetworkManager(func(p dbus.ObjectPath) dbus.BusObject {
		return conn.Object(nmService, p)
	}, iface)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	nm.conn = conn
	return nm, nil
}

func newNetworkManager(object func(dbus.ObjectPath) dbus.BusObject, iface string) (*NetworkManager, error) {
	var device dbus.ObjectPath
	err := object(nmPath).
		Call(nmService+".GetDeviceByIpIface", 0, iface).
		Store(&device)
	if err != nil {
		return nil, fmt.Errorf("device %q: %w", iface, err)
	}
	return &NetworkManager{object: object, device: device}, nil
}

func (n *NetworkManager) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

func (n *NetworkManager) Associate(ctx context.Context, creds Credentials) error {
	settings := map[string]map[string]dbus.Variant{
		"connection": {
			"id":   dbus.MakeVariant(creds.SSID),
			"type": dbus.MakeVariant("802-11-wireless"),
		},
		"802-11-wireless": {
			"ssid": dbus.MakeVariant([]byte(creds.SSID)),
			"mode": dbus.MakeVariant("infrastructure"),
		},
	}
	if creds.Password != "" {
		settings["802-11-wireless-security"] = map[string]dbus.Variant{
			"key-mgmt": dbus.MakeVariant("wpa-psk"),
			"psk":      dbus.MakeVariant(creds.Password),
		}
	}

	options := map[string]dbus.Variant{"persist": dbus.MakeVariant("volatile")}

	var (
		profile, active dbus.ObjectPath
		result          map[string]dbus.Variant
	)
	err := n.object(nmPath).
		CallWithContext(ctx, nmService+".AddAndActivateConnection2", 0, settings, n.device, dbus.ObjectPath("/"), options).
		Store(&profile, &active, &result)
	if err != nil {
		return fmt.Errorf("add and activate %q: %w", creds.SSID, err)
	}
	n.active = active
	return nil
}

// Connected reports the state of the activation started by Associate, not the
// device, which may still be up on a previous network.
func (n *NetworkManager) Connected(context.Context) (bool, error) {
	if n.active == "" {
		return false, errors.New("no activation in progress")
	}
	state, err := property[uint32](n.object(n.active), nmService+".Connection.Active.State")
	if err != nil {
		return false, err
	}
	if state == nmActiveStateDeactivated {
		return false, backoff.Permanent(errActivationFailed)
	}
	return state == nmActiveStateActivated, nil
}

func (n *NetworkManager) Details(context.Context) (Details, error) {
	var d Details
	dev := n.object(n.device)

	ip4Path, err := property[dbus.ObjectPath](n.object(n.active), nmService+".Connection.Active.Ip4Config")
	if err != nil {
		return d, err
	}
	ip4 := n.object(ip4Path)
	if addrs, err := property[[]map[string]dbus.Variant](ip4, nmService+".IP4Config.AddressData"); err == nil {
		d.IP = firstAddress(addrs)
	}
	if gw, err := property[string](ip4, nmService+".IP4Config.Gateway"); err == nil {
		d.Gateway = gw
	}
	if ns, err := property[[]map[string]dbus.Variant](ip4, nmService+".IP4Config.NameserverData"); err == nil {
		d.DNS = firstAddress(ns)
	}

	apPath, err := property[dbus.ObjectPath](dev, nmService+".Device.Wireless.ActiveAccessPoint")
	if err != nil || apPath == "/" {
		return d, nil
	}
	ap := n.object(apPath)
	if ssid, err := property[[]byte](ap, nmService+".AccessPoint.Ssid"); err == nil {
		d.SSID = string(ssid)
	}
	if freq, err := property[uint32](ap, nmService+".AccessPoint.Frequency"); err == nil {
		d.Channel = ChannelFromFrequency(int(freq))
	}
	if strength, err := property[byte](ap, nmService+".AccessPoint.Strength"); err == nil {
		d.SignalStrength = int(strength)
	}
	return d, nil
}

func property[T any](obj dbus.BusObject, name string) (T, error) {
	var zero T
	v, err := obj.GetProperty(name)
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", name, err)
	}
	out, ok := v.Value().(T)
	if !ok {
		return zero, fmt.Errorf("property %s has type %s", name, v.Signature())
	}
	return out, nil
}

func firstAddress(entries []map[string]dbus.Variant) string {
	for _, e := range entries {
		if a, ok := e["address"].Value().(string); ok && a != "" {
			return a
		}
	}
	return ""
}
