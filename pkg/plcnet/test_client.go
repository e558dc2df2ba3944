package plcnet

func CreateTestReader() (Reader, error) {
	return &TestReader{}, nil
}

// TestReader serves a fixed two-adapter powerline network with Wi-Fi enabled.
type TestReader struct {
	FailPolls bool
}

func (r *TestReader) Open() error {
	return nil
}

func (r *TestReader) Close() error {
	return nil
}

func (r *TestReader) GetInfo() (*DeviceInfo, error) {
	return &DeviceInfo{
		Serial:       "1234567890123456",
		Name:         "Living room",
		Manufacturer: "devolo",
		Model:        "Magic 2 WiFi 2-1",
		Version:      "5.6.1",
		Features:     []string{"reset", "update", "led", FEATURE_WIFI1},
		HasPLCNet:    true,
	}, nil
}

func (r *TestReader) GetLogicalNetwork() (*LogicalNetwork, error) {
	if r.FailPolls {
		return nil, ErrUnsupported
	}
	return &LogicalNetwork{
		DataRates: []DataRate{
			{MacAddressFrom: "AA:BB:CC:DD:EE:01", MacAddressTo: "AA:BB:CC:DD:EE:02"},
			{MacAddressFrom: "AA:BB:CC:DD:EE:02", MacAddressTo: "AA:BB:CC:DD:EE:01"},
			{MacAddressFrom: "AA:BB:CC:DD:EE:01", MacAddressTo: "AA:BB:CC:DD:EE:03"},
			{MacAddressFrom: "AA:BB:CC:DD:EE:03", MacAddressTo: "AA:BB:CC:DD:EE:01"},
		},
	}, nil
}

func (r *TestReader) GetConnectedStations() ([]ConnectedStation, error) {
	if r.FailPolls {
		return nil, ErrUnsupported
	}
	return []ConnectedStation{
		{MacAddress: "11:22:33:44:55:01"},
		{MacAddress: "11:22:33:44:55:02"},
	}, nil
}

func (r *TestReader) GetNeighborAPs() ([]NeighborAP, error) {
	if r.FailPolls {
		return nil, ErrUnsupported
	}
	return []NeighborAP{
		{MacAddress: "66:77:88:99:AA:01", SSID: "neighbor"},
	}, nil
}
