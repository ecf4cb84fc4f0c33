package models

import "time"

const SensorTypePressure = "presion"

type AlertType string

const (
	AlertTypeInfo     AlertType = "info"
	AlertTypeWarning  AlertType = "warning"
	AlertTypeCritical AlertType = "critical"
)

// Reading is one pressure sample. Rows are append-only, id order is the
// recency order.
type Reading struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeviceID   string    `gorm:"index;not null" json:"device_id"`
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"value"`
	Estatus    string    `gorm:"column:estatus;index" json:"estatus"`
	Categoria  string    `gorm:"column:categoria" json:"categoria"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Reading) TableName() string {
	return "sensor_data"
}

type APIToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"size:255;not null;uniqueIndex"`
	ExpiresAt time.Time `gorm:"index"`
}

func (APIToken) TableName() string {
	return "api_tokens"
}

// Alert is derived from the latest readings on every query, never stored.
type Alert struct {
	ID      int       `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    AlertType `json:"type"`
	Time    time.Time `json:"time"`
}
