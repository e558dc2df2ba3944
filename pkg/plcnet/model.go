package plcnet

const (
	FEATURE_WIFI1 = "wifi1"
)

type DeviceInfo struct {
	Serial       string
	Name         string
	Manufacturer string
	Model        string
	Version      string
	Features     []string
	HasPLCNet    bool
}

func (info *DeviceInfo) HasFeature(feature string) bool {
	for _, f := range info.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// LogicalNetwork is the powerline network as seen by the polled adapter.
// DataRates holds one record per directed link between two PLC devices.
type LogicalNetwork struct {
	DataRates []DataRate
}

type DataRate struct {
	MacAddressFrom string
	MacAddressTo   string
}

type ConnectedStation struct {
	MacAddress string
}

type NeighborAP struct {
	MacAddress string
	SSID       string
}

type Reader interface {
	Open() error
	Close() error
	GetInfo() (*DeviceInfo, error)
	GetLogicalNetwork() (*LogicalNetwork, error)
	GetConnectedStations() ([]ConnectedStation, error)
	GetNeighborAPs() ([]NeighborAP, error)
}
