package assetlibrary

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jacentio/orgmanager/clients/transport"
)

// Device is an asset-library device record.
type Device struct {
	DeviceID   string              `json:"deviceId"`
	TemplateID string              `json:"templateId"`
	Category   string              `json:"category,omitempty"`
	State      string              `json:"state,omitempty"`
	Attributes map[string]any      `json:"attributes,omitempty"`
	Groups     map[string][]string `json:"groups,omitempty"`
	Devices    map[string][]string `json:"devices,omitempty"`
	Components []Device            `json:"components,omitempty"`
}

// DevicesService operates on devices.
type DevicesService struct {
	doer transport.Doer
}

// DevicePath returns the resource path of one device.
func DevicePath(deviceID string) string {
	return "/devices/" + url.PathEscape(deviceID)
}

// DeviceRelationPath returns the path binding a device to a group through a
// named relationship.
func DeviceRelationPath(deviceID, relationship, groupPath string) string {
	return DevicePath(deviceID) + "/" + url.PathEscape(relationship) + "/groups/" + url.PathEscape(groupPath)
}

// Get returns one device by id.
func (s *DevicesService) Get(ctx context.Context, deviceID string) (*Device, error) {
	if err := requireArgs(map[string]string{"deviceId": deviceID}); err != nil {
		return nil, err
	}
	resp, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   DevicePath(deviceID),
	})
	if err != nil {
		return nil, err
	}
	var device Device
	if err := resp.DecodeBody(&device); err != nil {
		return nil, err
	}
	return &device, nil
}

// Create registers a new device.
func (s *DevicesService) Create(ctx context.Context, device Device) error {
	if err := requireArgs(map[string]string{
		"deviceId":   device.DeviceID,
		"templateId": device.TemplateID,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/devices",
		Body:   device,
	})
	return err
}

// Update patches an existing device.
func (s *DevicesService) Update(ctx context.Context, deviceID string, device Device) error {
	if err := requireArgs(map[string]string{"deviceId": deviceID}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   DevicePath(deviceID),
		Body:   device,
	})
	return err
}

// Delete removes a device.
func (s *DevicesService) Delete(ctx context.Context, deviceID string) error {
	if err := requireArgs(map[string]string{"deviceId": deviceID}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   DevicePath(deviceID),
	})
	return err
}

// AttachToGroup binds a device to a group through a named relationship.
func (s *DevicesService) AttachToGroup(ctx context.Context, deviceID, relationship, groupPath string) error {
	if err := requireArgs(map[string]string{
		"deviceId":     deviceID,
		"relationship": relationship,
		"groupPath":    groupPath,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodPut,
		Path:   DeviceRelationPath(deviceID, relationship, groupPath),
	})
	return err
}

// DetachFromGroup removes a device/group relationship.
func (s *DevicesService) DetachFromGroup(ctx context.Context, deviceID, relationship, groupPath string) error {
	if err := requireArgs(map[string]string{
		"deviceId":     deviceID,
		"relationship": relationship,
		"groupPath":    groupPath,
	}); err != nil {
		return err
	}
	_, err := s.doer.Do(ctx, transport.Request{
		Method: http.MethodDelete,
		Path:   DeviceRelationPath(deviceID, relationship, groupPath),
	})
	return err
}
