package iot

//go:generate mockgen -source=iot.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"liyu1981.xyz/iot-pressure-service/pkg/db"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

type IReading interface {
	InsertReading(ctx context.Context, input *models.Reading) (*models.Reading, error)
	ListReadings(ctx context.Context, filter ReadingFilter) ([]models.Reading, error)
	LatestReadings(ctx context.Context) ([]models.Reading, error)
	DeviceHistory(ctx context.Context, deviceID string, limit int) ([]models.Reading, error)
}

type IAlert interface {
	GetAlerts(ctx context.Context) ([]models.Alert, error)
}

type IToken interface {
	Authenticate(ctx context.Context, token string) error
}

type IOT struct {
	Db      db.DB
	Reading IReading
	Alert   IAlert
	Token   IToken

	// Now is the server clock, time.Now when nil.
	Now func() time.Time
}

type ServiceOpts struct {
	Reading IReading
	Alert   IAlert
	Token   IToken
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Reading != nil {
		i.Reading = opts.Reading
	}
	if opts.Alert != nil {
		i.Alert = opts.Alert
	}
	if opts.Token != nil {
		i.Token = opts.Token
	}
	return i
}

// WithDefaultServices wires the database backed implementation of every
// service.
func (i *IOT) WithDefaultServices() *IOT {
	return i.WithServices(ServiceOpts{
		Reading: i.GetIReading(),
		Alert:   i.GetIAlert(),
		Token:   i.GetIToken(),
	})
}

func (i *IOT) now() time.Time {
	if i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}
