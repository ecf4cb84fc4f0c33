package iot

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

func readingLogger() *zap.Logger {
	return common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTReading),
	)
}

// insertReading appends one row. The caller supplied estatus is trusted, only
// legacy labels are rewritten to the canonical vocabulary. id and created_at
// always come from the store and the server clock.
func (i *IOT) insertReading(ctx context.Context, input *models.Reading) (*models.Reading, error) {
	logger := readingLogger()

	reading := models.Reading{
		DeviceID:   input.DeviceID,
		SensorType: input.SensorType,
		Value:      input.Value,
		Estatus:    models.CanonicalStatusLabel(input.Estatus),
		Categoria:  input.Categoria,
		CreatedAt:  i.now(),
	}

	logger.Info("Received reading for device", zap.Reflect("reading", reading))

	if err := i.Db.Conn.WithContext(ctx).Create(&reading).Error; err != nil {
		logger.Error("Failed to store reading", zap.String("device_id", reading.DeviceID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	logger.Info("Stored reading for device", zap.Reflect("reading", reading))

	return &reading, nil
}

func (i *IOT) listReadings(ctx context.Context, filter ReadingFilter) ([]models.Reading, error) {
	readings := []models.Reading{}
	q := filter.apply(i.Db.Conn.WithContext(ctx).Model(&models.Reading{}))
	if err := q.Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return readings, nil
}

// latestReadings returns, for every device, the row with the highest id.
func (i *IOT) latestReadings(ctx context.Context) ([]models.Reading, error) {
	conn := i.Db.Conn.WithContext(ctx)
	latestIDs := conn.Model(&models.Reading{}).Select("MAX(id)").Group("device_id")

	readings := []models.Reading{}
	err := conn.
		Where("id IN (?)", latestIDs).
		Order("device_id asc").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return readings, nil
}

// deviceHistory returns the last limit readings of a device, oldest first.
func (i *IOT) deviceHistory(ctx context.Context, deviceID string, limit int) ([]models.Reading, error) {
	readings, err := i.listReadings(ctx, ReadingFilter{DeviceID: deviceID, Limit: limit})
	if err != nil {
		return nil, err
	}
	slices.Reverse(readings)
	return readings, nil
}

type IReadingImpl struct {
	iot *IOT
}

func (ir *IReadingImpl) InsertReading(ctx context.Context, input *models.Reading) (*models.Reading, error) {
	return ir.iot.insertReading(ctx, input)
}

func (ir *IReadingImpl) ListReadings(ctx context.Context, filter ReadingFilter) ([]models.Reading, error) {
	return ir.iot.listReadings(ctx, filter)
}

func (ir *IReadingImpl) LatestReadings(ctx context.Context) ([]models.Reading, error) {
	return ir.iot.latestReadings(ctx)
}

func (ir *IReadingImpl) DeviceHistory(ctx context.Context, deviceID string, limit int) ([]models.Reading, error) {
	return ir.iot.deviceHistory(ctx, deviceID, limit)
}

func (i *IOT) GetIReading() IReading {
	return &IReadingImpl{iot: i}
}
