package consign

import (
	"fmt"
	"sync"
)

// CarrierProfile describes what a carrier supports. The builder resolves a
// profile for the carrier named in the delivery options and validates the
// consignment against it.
type CarrierProfile struct {
	Name                  string
	HomeCountry           string
	PackageTypes          []PackageType
	DeliveryTypes         []DeliveryType
	MaxCompanyNameLength  int
	MaxLabelDescription   int
	DefaultInsuranceCents int64
}

// SupportsPackageType reports whether the carrier accepts the package type.
func (p CarrierProfile) SupportsPackageType(t PackageType) bool {
	for _, pt := range p.PackageTypes {
		if pt == t {
			return true
		}
	}
	return false
}

// SupportsDeliveryType reports whether the carrier accepts the delivery type.
func (p CarrierProfile) SupportsDeliveryType(t DeliveryType) bool {
	for _, dt := range p.DeliveryTypes {
		if dt == t {
			return true
		}
	}
	return false
}

// Registry manages the known carrier profiles.
type Registry struct {
	profiles map[string]CarrierProfile
	mu       sync.RWMutex
}

// NewRegistry creates an empty carrier registry.
func NewRegistry() *Registry {
	return &Registry{
		profiles: make(map[string]CarrierProfile),
	}
}

// DefaultRegistry returns a registry pre-loaded with the platform's
// standard carriers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CarrierProfile{
		Name:        "postnl",
		HomeCountry: "NL",
		PackageTypes: []PackageType{
			PackageTypePackage, PackageTypeMailbox, PackageTypeLetter, PackageTypeDigitalStamp,
		},
		DeliveryTypes: []DeliveryType{
			DeliveryMorning, DeliveryStandard, DeliveryEvening, DeliveryPickup, DeliveryPickupExpress,
		},
		MaxCompanyNameLength: 50,
		MaxLabelDescription:  45,
	})
	r.Register(CarrierProfile{
		Name:                 "dhlparcel",
		HomeCountry:          "NL",
		PackageTypes:         []PackageType{PackageTypePackage, PackageTypeMailbox},
		DeliveryTypes:        []DeliveryType{DeliveryStandard, DeliveryEvening, DeliveryPickup},
		MaxCompanyNameLength: 50,
		MaxLabelDescription:  45,
	})
	r.Register(CarrierProfile{
		Name:                 "bpost",
		HomeCountry:          "BE",
		PackageTypes:         []PackageType{PackageTypePackage},
		DeliveryTypes:        []DeliveryType{DeliveryStandard, DeliveryPickup},
		MaxCompanyNameLength: 50,
		MaxLabelDescription:  45,
	})
	return r
}

// Register adds a carrier profile to the registry.
func (r *Registry) Register(p CarrierProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.Name] = p
}

// Get returns a carrier profile by name.
func (r *Registry) Get(name string) (CarrierProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.profiles[name]; ok {
		return p, nil
	}
	return CarrierProfile{}, fmt.Errorf("%w: %s", ErrUnknownCarrier, name)
}

// Names returns the names of all registered carriers.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered carriers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
