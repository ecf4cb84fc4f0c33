package iot

import (
	"strings"

	z "github.com/Oudwins/zog"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

// ReadingInput is the body a device sends, identical on every transport.
type ReadingInput struct {
	DeviceID   string  `json:"device_id" zog:"device_id"`
	SensorType string  `json:"sensor_type" zog:"sensor_type"`
	Value      float64 `json:"value" zog:"value"`
	Estatus    string  `json:"estatus" zog:"estatus"`
	Categoria  string  `json:"categoria" zog:"categoria"`
}

// Only presence is checked. Range, estatus and categoria are trusted as sent.
var ReadingInputSchema = z.Struct(z.Shape{
	"DeviceID":   z.String().Trim().Min(1).Required(),
	"SensorType": z.String().Trim().Default(models.SensorTypePressure),
	"Value":      z.Float64().Required(),
	"Estatus":    z.String().Trim().Optional(),
	"Categoria":  z.String().Trim().Optional(),
})

func (in *ReadingInput) Reading() *models.Reading {
	return &models.Reading{
		DeviceID:   strings.TrimSpace(in.DeviceID),
		SensorType: in.SensorType,
		Value:      in.Value,
		Estatus:    in.Estatus,
		Categoria:  in.Categoria,
	}
}

// ParseReadingInput validates an already decoded body, as gRPC and MQTT
// deliver it.
func ParseReadingInput(data map[string]any) (*ReadingInput, z.ZogIssueMap) {
	var input ReadingInput
	if issues := ReadingInputSchema.Parse(data, &input); issues != nil {
		return nil, issues
	}
	return &input, nil
}
