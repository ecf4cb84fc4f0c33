package iot

import "liyu1981.xyz/iot-pressure-service/pkg/models"

const (
	PressureMuyBajaMax = 25.0
	PressureBajaMax    = 150.0
	PressureNormalMax  = 250.0
	PressureAltaMax    = 310.0
	PressureGaugeMax   = 580.0
)

// Classify maps a raw PSI value onto a status band for live display. It never
// looks at the stored estatus, which stays authoritative for history.
//
//	[0,25) Muy Baja, [25,150) Baja, [150,250) Normal, [250,310) Alta,
//	[310,580] Muy Alta, anything else Normal
func Classify(pressure float64) models.Status {
	switch {
	case pressure >= 0 && pressure < PressureMuyBajaMax:
		return models.StatusMuyBaja
	case pressure >= PressureMuyBajaMax && pressure < PressureBajaMax:
		return models.StatusBaja
	case pressure >= PressureBajaMax && pressure < PressureNormalMax:
		return models.StatusNormal
	case pressure >= PressureNormalMax && pressure < PressureAltaMax:
		return models.StatusAlta
	case pressure >= PressureAltaMax && pressure <= PressureGaugeMax:
		return models.StatusMuyAlta
	default:
		return models.StatusNormal
	}
}
