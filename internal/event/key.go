package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of the date component of a canonical key string.
const DateLayout = "20060102"

// InternalProviderID identifies events stored by this service.
const InternalProviderID = "rcs"

// ErrMalformedKey is returned when a key string does not have the canonical form.
var ErrMalformedKey = errors.New("malformed event key")

// Key identifies one occurrence of an event.
// A recurring event descriptor produces one Key per recurrence date.
type Key struct {
	// Date is the recurrence date, normalised to UTC midnight.
	Date time.Time
	// DescriptorID identifies the event descriptor within its provider.
	DescriptorID string
	// ProviderID identifies the system that owns the event descriptor.
	ProviderID string
}

// NewKey builds a Key, normalising the date so that keys built from different
// time values on the same calendar day compare equal.
func NewKey(date time.Time, descriptorID, providerID string) Key {
	y, m, d := date.Date()
	return Key{
		Date:         time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		DescriptorID: descriptorID,
		ProviderID:   providerID,
	}
}

// Descriptor IDs from external providers are free text, so the separator
// and the escape character are percent-encoded in the canonical form.
var (
	descriptorEscaper   = strings.NewReplacer("%", "%25", "|", "%7C")
	descriptorUnescaper = strings.NewReplacer("%25", "%", "%7C", "|")
)

// String returns the canonical form "YYYYMMDD|descriptor|provider".
func (k Key) String() string {
	return k.Date.Format(DateLayout) + "|" + descriptorEscaper.Replace(k.DescriptorID) + "|" + k.ProviderID
}

// IsZero reports whether k is the zero key.
func (k Key) IsZero() bool {
	return k.Date.IsZero() && k.DescriptorID == "" && k.ProviderID == ""
}

// ParseKey parses the canonical string form produced by String.
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, "|", 3)
	if len(parts) != 3 || parts[1] == "" {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedKey, s)
	}
	date, err := time.Parse(DateLayout, parts[0])
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %v", ErrMalformedKey, s, err)
	}
	return NewKey(date, descriptorUnescaper.Replace(parts[1]), parts[2]), nil
}

// MustParseKey is like ParseKey but panics on malformed input.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// Compare orders keys by date, then descriptor, then provider.
func Compare(a, b Key) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}
	if c := strings.Compare(a.DescriptorID, b.DescriptorID); c != 0 {
		return c
	}
	return strings.Compare(a.ProviderID, b.ProviderID)
}

// MarshalText encodes the key in its canonical string form.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes the canonical string form.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
