package plcnet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

const (
	OID_SYS_DESCR           = ".1.3.6.1.2.1.1.1.0"
	OID_SYS_NAME            = ".1.3.6.1.2.1.1.5.0"
	OID_ENT_SOFTWARE_REV    = ".1.3.6.1.2.1.47.1.1.1.1.10.1"
	OID_ENT_SERIAL_NUM      = ".1.3.6.1.2.1.47.1.1.1.1.11.1"
	OID_ENT_MFG_NAME        = ".1.3.6.1.2.1.47.1.1.1.1.12.1"
	OID_ENT_MODEL_NAME      = ".1.3.6.1.2.1.47.1.1.1.1.13.1"
	DEFAULT_SNMP_COMMUNITY  = "public"
	DEFAULT_SNMP_PORT       = 161
	DEFAULT_SNMP_RETRIES    = 1
	SNMP_MAX_REPETITIONS    = 25
	SNMP_MAC_ADDRESS_LENGTH = 6
)

var (
	ErrUnsupported = errors.New("not supported by device")
	ErrNotAMac     = errors.New("value is not a mac address")
)

// SNMPTables holds the table columns walked for every metric category.
// An empty column disables its category.
type SNMPTables struct {
	PLCRateFromOID string
	PLCRateToOID   string
	StationOID     string
	NeighborOID    string
}

type SNMPReader struct {
	client   *gosnmp.GoSNMP
	tables   SNMPTables
	features []string
}

func CreateSNMPReader(host string, port uint16, community string, timeout time.Duration,
	tables SNMPTables, features []string) (*SNMPReader, error) {
	if host == "" {
		return nil, errors.New("snmp host cannot be empty")
	}
	if port == 0 {
		port = DEFAULT_SNMP_PORT
	}
	if community == "" {
		community = DEFAULT_SNMP_COMMUNITY
	}
	return &SNMPReader{
		client: &gosnmp.GoSNMP{
			Target:         host,
			Port:           port,
			Community:      community,
			Version:        gosnmp.Version2c,
			Timeout:        timeout,
			Retries:        DEFAULT_SNMP_RETRIES,
			MaxRepetitions: SNMP_MAX_REPETITIONS,
		},
		tables:   tables,
		features: features,
	}, nil
}

func (r *SNMPReader) Open() error {
	return r.client.Connect()
}

func (r *SNMPReader) Close() error {
	if r.client.Conn == nil {
		return nil
	}
	return r.client.Conn.Close()
}

func (r *SNMPReader) GetInfo() (*DeviceInfo, error) {
	packet, err := r.client.Get([]string{OID_SYS_DESCR, OID_SYS_NAME, OID_ENT_SOFTWARE_REV,
		OID_ENT_SERIAL_NUM, OID_ENT_MFG_NAME, OID_ENT_MODEL_NAME})
	if err != nil {
		return nil, fmt.Errorf("snmp get device info: %w", err)
	}
	values := make(map[string]string, len(packet.Variables))
	for _, pdu := range packet.Variables {
		if s, ok := pduString(pdu); ok {
			values[normalizeOID(pdu.Name)] = s
		}
	}

	info := &DeviceInfo{
		Serial:       values[OID_ENT_SERIAL_NUM],
		Name:         values[OID_SYS_NAME],
		Manufacturer: values[OID_ENT_MFG_NAME],
		Model:        values[OID_ENT_MODEL_NAME],
		Version:      values[OID_ENT_SOFTWARE_REV],
		HasPLCNet:    r.tables.PLCRateFromOID != "",
	}
	if info.Model == "" {
		info.Model = values[OID_SYS_DESCR]
	}
	// devices without ENTITY-MIB are identified by their address
	if info.Serial == "" {
		info.Serial = r.client.Target
	}
	info.Features = append(info.Features, r.features...)
	if r.tables.StationOID != "" && !info.HasFeature(FEATURE_WIFI1) {
		info.Features = append(info.Features, FEATURE_WIFI1)
	}
	return info, nil
}

func (r *SNMPReader) GetLogicalNetwork() (*LogicalNetwork, error) {
	if r.tables.PLCRateFromOID == "" {
		return nil, ErrUnsupported
	}
	from, err := r.walkMacColumn(r.tables.PLCRateFromOID)
	if err != nil {
		return nil, err
	}
	var to map[string]string
	if r.tables.PLCRateToOID != "" {
		to, err = r.walkMacColumn(r.tables.PLCRateToOID)
		if err != nil {
			return nil, err
		}
	}
	return buildLogicalNetwork(from, to), nil
}

func (r *SNMPReader) GetConnectedStations() ([]ConnectedStation, error) {
	if r.tables.StationOID == "" {
		return nil, ErrUnsupported
	}
	pdus, err := r.client.BulkWalkAll(r.tables.StationOID)
	if err != nil {
		return nil, fmt.Errorf("snmp walk stations: %w", err)
	}
	stations := make([]ConnectedStation, 0, len(pdus))
	for _, pdu := range pdus {
		mac, err := macFromValueOrIndex(pdu, r.tables.StationOID)
		if err != nil {
			// keep the row: the count is what matters
			mac = rowIndex(pdu.Name, r.tables.StationOID)
		}
		stations = append(stations, ConnectedStation{MacAddress: mac})
	}
	return stations, nil
}

func (r *SNMPReader) GetNeighborAPs() ([]NeighborAP, error) {
	if r.tables.NeighborOID == "" {
		return nil, ErrUnsupported
	}
	pdus, err := r.client.BulkWalkAll(r.tables.NeighborOID)
	if err != nil {
		return nil, fmt.Errorf("snmp walk neighbor aps: %w", err)
	}
	aps := make([]NeighborAP, 0, len(pdus))
	for _, pdu := range pdus {
		ap := NeighborAP{}
		if mac, err := macFromIndex(rowIndex(pdu.Name, r.tables.NeighborOID)); err == nil {
			ap.MacAddress = mac
		}
		if ssid, ok := pduString(pdu); ok {
			ap.SSID = ssid
		}
		aps = append(aps, ap)
	}
	return aps, nil
}

// walkMacColumn returns row index => mac address for a table column of mac addresses.
func (r *SNMPReader) walkMacColumn(oid string) (map[string]string, error) {
	pdus, err := r.client.BulkWalkAll(oid)
	if err != nil {
		return nil, fmt.Errorf("snmp walk %s: %w", oid, err)
	}
	column := make(map[string]string, len(pdus))
	for _, pdu := range pdus {
		mac, err := macFromValue(pdu)
		if err != nil {
			continue
		}
		column[rowIndex(pdu.Name, oid)] = mac
	}
	return column, nil
}

func buildLogicalNetwork(from, to map[string]string) *LogicalNetwork {
	network := &LogicalNetwork{
		DataRates: make([]DataRate, 0, len(from)),
	}
	for idx, mac := range from {
		network.DataRates = append(network.DataRates, DataRate{
			MacAddressFrom: mac,
			MacAddressTo:   to[idx],
		})
	}
	return network
}

func pduString(pdu gosnmp.SnmpPDU) (string, bool) {
	if pdu.Type != gosnmp.OctetString {
		return "", false
	}
	b, ok := pdu.Value.([]byte)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

func macFromValue(pdu gosnmp.SnmpPDU) (string, error) {
	if pdu.Type != gosnmp.OctetString {
		return "", ErrNotAMac
	}
	b, ok := pdu.Value.([]byte)
	if !ok || len(b) != SNMP_MAC_ADDRESS_LENGTH {
		return "", ErrNotAMac
	}
	return formatMac(b), nil
}

func macFromValueOrIndex(pdu gosnmp.SnmpPDU, root string) (string, error) {
	if mac, err := macFromValue(pdu); err == nil {
		return mac, nil
	}
	return macFromIndex(rowIndex(pdu.Name, root))
}

// macFromIndex decodes the trailing six sub-identifiers of a row index.
func macFromIndex(index string) (string, error) {
	parts := strings.Split(index, ".")
	if len(parts) < SNMP_MAC_ADDRESS_LENGTH {
		return "", ErrNotAMac
	}
	parts = parts[len(parts)-SNMP_MAC_ADDRESS_LENGTH:]
	b := make([]byte, SNMP_MAC_ADDRESS_LENGTH)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return "", ErrNotAMac
		}
		b[i] = byte(v)
	}
	return formatMac(b), nil
}

func formatMac(b []byte) string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}

func rowIndex(name, root string) string {
	return strings.TrimPrefix(strings.TrimPrefix(normalizeOID(name), normalizeOID(root)), ".")
}

func normalizeOID(oid string) string {
	if strings.HasPrefix(oid, ".") {
		return oid
	}
	return "." + oid
}

// ensure interface compliance
var _ Reader = (*SNMPReader)(nil)
