package core

// DeviceType indicates the kind of playback device.
type DeviceType string

const (
	DeviceTypeSpeaker  DeviceType = "speaker"
	DeviceTypeComputer DeviceType = "computer"
	DeviceTypePhone    DeviceType = "phone"
	DeviceTypeTV       DeviceType = "tv"
	DeviceTypeUnknown  DeviceType = "unknown"
)

// Device represents a playback device as reported by a single device-list
// snapshot. IsActive reflects the moment of the fetch only.
type Device struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       DeviceType `json:"type"`
	IsActive   bool       `json:"is_active"`
	Restricted bool       `json:"is_restricted,omitempty"`
	Volume     *int       `json:"volume,omitempty"`
}

// FindDevice returns the device with the given id, or nil.
func FindDevice(devices []Device, id string) *Device {
	for i := range devices {
		if devices[i].ID == id {
			return &devices[i]
		}
	}
	return nil
}
