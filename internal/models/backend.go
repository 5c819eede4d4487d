package models

import "net/url"

// BackendDescriptor is the resolved address of one backend. Built once at
// startup and never mutated.
type BackendDescriptor struct {
	Name        ServiceName
	BaseAddress *url.URL
	MountPrefix string
}

// Mount binds an inbound path prefix to a backend. Requests under Prefix
// are rewritten to Root on the backend.
type Mount struct {
	Prefix  string
	Root    string
	Service ServiceName
	Methods []string
}

func (m Mount) Allows(method string) bool {
	for _, allowed := range m.Methods {
		if allowed == method {
			return true
		}
	}
	return false
}
