package config

// BasicService is used as a simple base for node services like Pprof, RPC or
// Prometheus monitoring.
type BasicService struct {
	Enabled bool `yaml:"Enabled"`
	// Addresses holds the list of bind addresses in the form of "address:port".
	Addresses []string `yaml:"Addresses"`
}

// GetAddresses returns a copy of the bind addresses of the given basic service.
func (s BasicService) GetAddresses() []string {
	addrs := make([]string, len(s.Addresses))
	copy(addrs, s.Addresses)
	return addrs
}
