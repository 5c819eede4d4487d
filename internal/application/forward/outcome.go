package forward

import "fmt"

// Kind classifies a transport failure.
type Kind int

const (
	KindOther Kind = iota
	KindTimeout
	KindUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	}
	return "other"
}

// Outcome is either a Success or a TransportFailure.
type Outcome interface {
	outcome()
}

// Success is any response the backend produced, including its own errors.
type Success struct {
	Status      int
	Body        []byte
	ContentType string
	Location    string
}

// OK reports a 2xx status.
func (s Success) OK() bool {
	return s.Status >= 200 && s.Status < 300
}

// TransportFailure means no usable response arrived. Err is for logs only.
type TransportFailure struct {
	Kind Kind
	Err  error
}

func (f TransportFailure) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f TransportFailure) Unwrap() error {
	return f.Err
}

func (Success) outcome()          {}
func (TransportFailure) outcome() {}
