package models

import "strings"

type Status int

const (
	StatusUnknown Status = iota
	StatusMuyBaja
	StatusBaja
	StatusNormal
	StatusAlta
	StatusMuyAlta
)

var statusLabels = [...]string{
	StatusUnknown: "Desconocido",
	StatusMuyBaja: "Muy Baja",
	StatusBaja:    "Baja",
	StatusNormal:  "Normal",
	StatusAlta:    "Alta",
	StatusMuyAlta: "Muy Alta",
}

// labels written by older firmware, mapped onto the same bands
var statusLegacyLabels = [...]string{
	StatusUnknown: "Desconocido",
	StatusMuyBaja: "Falla Baja",
	StatusBaja:    "Baja",
	StatusNormal:  "Normal",
	StatusAlta:    "Alta",
	StatusMuyAlta: "Falla Alta",
}

var statusCSSClasses = [...]string{
	StatusUnknown: "status-normal",
	StatusMuyBaja: "status-muy-baja",
	StatusBaja:    "status-baja",
	StatusNormal:  "status-normal",
	StatusAlta:    "status-alta",
	StatusMuyAlta: "status-muy-alta",
}

var statusColors = [...]string{
	StatusUnknown: "#95a5a6",
	StatusMuyBaja: "#e74c3c",
	StatusBaja:    "#f39c12",
	StatusNormal:  "#2ecc71",
	StatusAlta:    "#f39c12",
	StatusMuyAlta: "#e74c3c",
}

func (s Status) valid() bool {
	return s > StatusUnknown && s <= StatusMuyAlta
}

func (s Status) String() string {
	if !s.valid() {
		return statusLabels[StatusUnknown]
	}
	return statusLabels[s]
}

func (s Status) LegacyString() string {
	if !s.valid() {
		return statusLegacyLabels[StatusUnknown]
	}
	return statusLegacyLabels[s]
}

func (s Status) CSSClass() string {
	if !s.valid() {
		return statusCSSClasses[StatusUnknown]
	}
	return statusCSSClasses[s]
}

func (s Status) Color() string {
	if !s.valid() {
		return statusColors[StatusUnknown]
	}
	return statusColors[s]
}

func (s Status) IsCritical() bool {
	return s == StatusMuyBaja || s == StatusMuyAlta
}

// AllStatuses lists the five bands from lowest to highest pressure.
func AllStatuses() []Status {
	return []Status{StatusMuyBaja, StatusBaja, StatusNormal, StatusAlta, StatusMuyAlta}
}

// ParseStatus accepts both the canonical and the legacy vocabulary,
// case-insensitively.
func ParseStatus(label string) (Status, bool) {
	label = strings.TrimSpace(label)
	for _, s := range AllStatuses() {
		if strings.EqualFold(label, statusLabels[s]) || strings.EqualFold(label, statusLegacyLabels[s]) {
			return s, true
		}
	}
	return StatusUnknown, false
}

// CanonicalStatusLabel rewrites a known label to the canonical vocabulary and
// leaves anything else untouched.
func CanonicalStatusLabel(label string) string {
	if s, ok := ParseStatus(label); ok {
		return s.String()
	}
	return label
}

// LegacyStatusMigrations maps each legacy-only label to its canonical one.
func LegacyStatusMigrations() map[string]string {
	migrations := map[string]string{}
	for _, s := range AllStatuses() {
		if statusLegacyLabels[s] != statusLabels[s] {
			migrations[statusLegacyLabels[s]] = statusLabels[s]
		}
	}
	return migrations
}
