package iot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

type alertRule struct {
	alertType models.AlertType
	title     string
	message   string
}

// Plain Baja is deliberately not alertable, only Muy Baja is.
var alertRules = map[string]alertRule{
	models.StatusMuyBaja.String(): {
		alertType: models.AlertTypeCritical,
		title:     "Presión Muy Baja",
		message:   "El dispositivo ha detectado una presión anormalmente baja",
	},
	models.StatusMuyAlta.String(): {
		alertType: models.AlertTypeCritical,
		title:     "Presión Muy Alta",
		message:   "El dispositivo ha detectado una presión anormalmente alta",
	},
	models.StatusAlta.String(): {
		alertType: models.AlertTypeWarning,
		title:     "Presión Alta",
		message:   "La presión está por encima del rango normal",
	},
}

const (
	systemAlertTitle   = "Sistema Actualizado"
	systemAlertMessage = "El sistema se ha actualizado correctamente"
)

func IsAlertable(estatus string) bool {
	_, ok := alertRules[estatus]
	return ok
}

// DeriveAlerts maps the latest reading of every device onto alerts and closes
// the list with one informational alert stamped with now.
func DeriveAlerts(latest []models.Reading, now time.Time) []models.Alert {
	alerts := []models.Alert{}
	for _, reading := range latest {
		rule, ok := alertRules[reading.Estatus]
		if !ok {
			continue
		}
		alerts = append(alerts, models.Alert{
			ID:      len(alerts) + 1,
			Title:   fmt.Sprintf("%s - %s", reading.DeviceID, rule.title),
			Message: rule.message,
			Type:    rule.alertType,
			Time:    reading.CreatedAt,
		})
	}

	return append(alerts, models.Alert{
		ID:      len(alerts) + 1,
		Title:   systemAlertTitle,
		Message: systemAlertMessage,
		Type:    models.AlertTypeInfo,
		Time:    now,
	})
}

func (i *IOT) getAlerts(ctx context.Context) ([]models.Alert, error) {
	if i.Reading == nil {
		return nil, fmt.Errorf("reading service not available")
	}

	latest, err := i.Reading.LatestReadings(ctx)
	if err != nil {
		return nil, err
	}

	alerts := DeriveAlerts(latest, i.now())

	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTAlert),
	)
	logger.Debug("Derived alerts", zap.Int("devices", len(latest)), zap.Int("alerts", len(alerts)))

	return alerts, nil
}

type IAlertImpl struct {
	iot *IOT
}

func (ia *IAlertImpl) GetAlerts(ctx context.Context) ([]models.Alert, error) {
	return ia.iot.getAlerts(ctx)
}

func (i *IOT) GetIAlert() IAlert {
	return &IAlertImpl{iot: i}
}
