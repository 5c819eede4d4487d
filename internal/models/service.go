package models

import "fmt"

// ServiceName identifies one of the backends the gateway fronts.
type ServiceName int

const (
	ServiceOrder ServiceName = iota + 1
	ServiceInventory
	ServicePayment
	ServiceUser
)

func (s ServiceName) String() string {
	switch s {
	case ServiceOrder:
		return "order"
	case ServiceInventory:
		return "inventory"
	case ServicePayment:
		return "payment"
	case ServiceUser:
		return "user"
	}
	return fmt.Sprintf("ServiceName(%d)", int(s))
}

// ParseServiceName maps a selector value to a service. Unknown values are
// rejected rather than mapped to a default.
func ParseServiceName(v string) (ServiceName, bool) {
	switch v {
	case "order":
		return ServiceOrder, true
	case "inventory":
		return ServiceInventory, true
	case "payment":
		return ServicePayment, true
	case "user":
		return ServiceUser, true
	}
	return 0, false
}

// Transactional reports whether the service owns failed events.
func (s ServiceName) Transactional() bool {
	switch s {
	case ServiceOrder, ServiceInventory, ServicePayment:
		return true
	}
	return false
}

func (s ServiceName) MarshalText() ([]byte, error) {
	if _, ok := ParseServiceName(s.String()); !ok {
		return nil, fmt.Errorf("unknown service %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *ServiceName) UnmarshalText(b []byte) error {
	v, ok := ParseServiceName(string(b))
	if !ok {
		return fmt.Errorf("unknown service %q", string(b))
	}
	*s = v
	return nil
}

// AllServices lists every backend the registry must know about.
func AllServices() []ServiceName {
	return []ServiceName{ServiceOrder, ServiceInventory, ServicePayment, ServiceUser}
}

// TransactionalServices lists the failed-event owners in dashboard order.
func TransactionalServices() []ServiceName {
	return []ServiceName{ServiceOrder, ServiceInventory, ServicePayment}
}
