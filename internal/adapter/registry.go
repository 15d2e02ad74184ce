package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-protocol-sync/models"
)

func decodeDeviceRegistry(data []byte) (models.DeviceRegistryDocument, error) {
	var doc models.DeviceRegistryDocument
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.DeviceRegistryDocument{}, fmt.Errorf("%w: device registry: %v", models.ErrMalformedRemoteData, err)
	}
	return doc, nil
}

func encodeDeviceRegistry(doc models.DeviceRegistryDocument) ([]byte, error) {
	if doc.RegisteredDevices == nil {
		doc.RegisteredDevices = []models.DeviceRecord{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode device registry: %w", err)
	}
	return data, nil
}
