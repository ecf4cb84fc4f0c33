package dashboard

import (
	"maps"

	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

const CategoryAll = "todos"

// ViewState is what the operator chose to see. It only changes through
// Reduce.
type ViewState struct {
	Category         string
	HiddenDevices    map[string]bool
	HiddenCategories map[string]bool
	AlertsEnabled    bool
}

func NewViewState() ViewState {
	return ViewState{
		Category:         models.CategoryAutomotriz,
		HiddenDevices:    map[string]bool{},
		HiddenCategories: map[string]bool{},
		AlertsEnabled:    true,
	}
}

type Action interface {
	apply(s *ViewState)
}

type SetCategory struct{ Category string }

type HideDevice struct{ DeviceID string }

type ShowDevice struct{ DeviceID string }

// ShowAllDevices unhides every device of the current category found in
// Latest.
type ShowAllDevices struct{ Latest []models.Reading }

type ToggleCategoryHidden struct{}

type SetAlertsEnabled struct{ Enabled bool }

func (a SetCategory) apply(s *ViewState)      { s.Category = a.Category }
func (a HideDevice) apply(s *ViewState)       { s.HiddenDevices[a.DeviceID] = true }
func (a ShowDevice) apply(s *ViewState)       { delete(s.HiddenDevices, a.DeviceID) }
func (a SetAlertsEnabled) apply(s *ViewState) { s.AlertsEnabled = a.Enabled }

func (a ShowAllDevices) apply(s *ViewState) {
	for _, r := range a.Latest {
		if s.inCategory(r) {
			delete(s.HiddenDevices, r.DeviceID)
		}
	}
}

func (ToggleCategoryHidden) apply(s *ViewState) {
	s.HiddenCategories[s.Category] = !s.HiddenCategories[s.Category]
}

// Reduce returns the next state, the given one is left untouched.
func Reduce(s ViewState, action Action) ViewState {
	next := ViewState{
		Category:         s.Category,
		HiddenDevices:    maps.Clone(s.HiddenDevices),
		HiddenCategories: maps.Clone(s.HiddenCategories),
		AlertsEnabled:    s.AlertsEnabled,
	}
	if next.HiddenDevices == nil {
		next.HiddenDevices = map[string]bool{}
	}
	if next.HiddenCategories == nil {
		next.HiddenCategories = map[string]bool{}
	}
	action.apply(&next)
	return next
}

func (s ViewState) inCategory(r models.Reading) bool {
	return s.Category == CategoryAll || r.Categoria == s.Category
}

// Visible filters the latest readings down to the cards the operator sees.
func (s ViewState) Visible(latest []models.Reading) []models.Reading {
	if s.HiddenCategories[s.Category] {
		return []models.Reading{}
	}
	return common.Filter(latest, func(r models.Reading) bool {
		return s.inCategory(r) && !s.HiddenDevices[r.DeviceID]
	})
}

// Hidden lists the devices of the current category that can be shown again.
func (s ViewState) Hidden(latest []models.Reading) []models.Reading {
	return common.Filter(latest, func(r models.Reading) bool {
		return s.inCategory(r) && s.HiddenDevices[r.DeviceID]
	})
}
