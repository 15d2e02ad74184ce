// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// DeviceRegistryName is the fixed object name of the shared device registry.
const DeviceRegistryName = "DeviceRegistry.json"

// DeviceDescriptor describes the device running this process.
type DeviceDescriptor struct {
	ID   string
	Name string
	Type string

	// IsDisposable is true for sandboxed, simulated or otherwise throwaway
	// environments that must never sync.
	IsDisposable bool
}

// DeviceRecord is one entry of the shared device registry.
type DeviceRecord struct {
	DeviceID      string    `json:"deviceID"`
	DeviceName    string    `json:"deviceName"`
	DeviceType    string    `json:"deviceType"`
	IsSimulator   bool      `json:"isSimulator"`
	FirstSyncDate time.Time `json:"firstSyncDate"`
	LastSyncDate  time.Time `json:"lastSyncDate"`
	IsPrimary     bool      `json:"isPrimary"`
}

// DeviceRegistryDocument lists every device that has ever synced the
// account. It is read, modified and written back once per sync.
type DeviceRegistryDocument struct {
	RegisteredDevices []DeviceRecord `json:"registeredDevices"`
	LastModifiedBy    string         `json:"lastModifiedBy"`
	LastModifiedAt    time.Time      `json:"lastModifiedAt"`
}

// IsEmpty reports whether no device has registered yet.
func (d DeviceRegistryDocument) IsEmpty() bool {
	return len(d.RegisteredDevices) == 0
}

// Contains reports whether deviceID is registered.
func (d DeviceRegistryDocument) Contains(deviceID string) bool {
	return d.indexOf(deviceID) >= 0
}

// Device returns the entry registered under deviceID.
func (d DeviceRegistryDocument) Device(deviceID string) (DeviceRecord, bool) {
	i := d.indexOf(deviceID)
	if i < 0 {
		return DeviceRecord{}, false
	}
	return d.RegisteredDevices[i], true
}

// RegisterDevice upserts the device by ID and stamps its last sync date.
// A new entry is primary only when the registry was empty before it.
// Calling it repeatedly for the same device never adds a second entry.
func (d *DeviceRegistryDocument) RegisterDevice(device DeviceDescriptor, now time.Time) {
	now = now.UTC()

	if i := d.indexOf(device.ID); i >= 0 {
		entry := &d.RegisteredDevices[i]
		entry.DeviceName = device.Name
		entry.DeviceType = device.Type
		entry.IsSimulator = device.IsDisposable
		entry.LastSyncDate = now
	} else {
		d.RegisteredDevices = append(d.RegisteredDevices, DeviceRecord{
			DeviceID:      device.ID,
			DeviceName:    device.Name,
			DeviceType:    device.Type,
			IsSimulator:   device.IsDisposable,
			FirstSyncDate: now,
			LastSyncDate:  now,
			IsPrimary:     len(d.RegisteredDevices) == 0,
		})
	}

	d.LastModifiedBy = device.ID
	d.LastModifiedAt = now
}

// LastOtherDevice returns the most recently synced device other than
// excludingID. Simulator entries are skipped: they never prompt a conflict.
func (d DeviceRegistryDocument) LastOtherDevice(excludingID string) (DeviceRecord, bool) {
	var (
		best  DeviceRecord
		found bool
	)
	for _, dev := range d.RegisteredDevices {
		if dev.DeviceID == excludingID || dev.IsSimulator {
			continue
		}
		if !found || dev.LastSyncDate.After(best.LastSyncDate) {
			best = dev
			found = true
		}
	}
	return best, found
}

func (d DeviceRegistryDocument) indexOf(deviceID string) int {
	for i := range d.RegisteredDevices {
		if d.RegisteredDevices[i].DeviceID == deviceID {
			return i
		}
	}
	return -1
}
