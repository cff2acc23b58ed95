package bridge

import (
	"github.com/google/uuid"
)

// uuidNamespace is the fixed namespace for deterministic accessory UUIDs.
// Changing it would orphan every persisted accessory cache.
var uuidNamespace = uuid.MustParse("815f6a34-bc9f-45b1-95a3-fe3d4e9c2b1a")

// Service is a single capability surface of an accessory, such as a light
// or a temperature sensor.
type Service struct {
	Type            string         `json:"type"`
	Name            string         `json:"name,omitempty"`
	Characteristics map[string]any `json:"characteristics,omitempty"`
}

// Accessory is a bridgeable device record.
type Accessory struct {
	UUID     uuid.UUID `json:"uuid"`
	Name     string    `json:"name"`
	Services []Service `json:"services"`
}

// GenerateUUID derives a stable accessory UUID from a seed string.
// The same seed always produces the same UUID, which is what lets cached
// accessories re-associate across restarts.
func GenerateUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(uuidNamespace, []byte(seed))
}

// NewAccessory builds an accessory record. The UUID is derived from the
// display name; seed, when non-empty, is appended so two accessories with
// the same name can coexist.
func NewAccessory(name, seed string, services []Service) Accessory {
	return Accessory{
		UUID:     GenerateUUID(name + seed),
		Name:     name,
		Services: services,
	}
}
