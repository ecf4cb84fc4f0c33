package iot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

var bearerPattern = regexp.MustCompile(`(?i)^\s*Bearer\s+(\S+)\s*$`)

// ParseBearerToken extracts the token from an Authorization header value.
func ParseBearerToken(header string) (string, error) {
	matches := bearerPattern.FindStringSubmatch(header)
	if matches == nil {
		return "", fmt.Errorf("%w: missing or invalid authorization token", ErrUnauthorized)
	}
	return matches[1], nil
}

func (i *IOT) authenticate(ctx context.Context, token string) error {
	logger := common.GetLoggerWith(
		common.LoggerNameIOTCore,
		zap.String(common.LoggerFieldIOTCategory, common.LoggerCategoryIOTToken),
	)

	if token == "" {
		return fmt.Errorf("%w: missing or invalid authorization token", ErrUnauthorized)
	}

	var found models.APIToken
	err := i.Db.Conn.WithContext(ctx).Where("token = ?", token).First(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Info("Rejected unknown token")
		return fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}
	if err != nil {
		logger.Error("Failed to look up token", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}

	// compared here rather than in SQL, sqlite keeps timestamps as text
	if !found.ExpiresAt.After(i.now()) {
		logger.Info("Rejected expired token", zap.Uint("token_id", found.ID), zap.Time("expires_at", found.ExpiresAt))
		return fmt.Errorf("%w: invalid or expired token", ErrUnauthorized)
	}

	return nil
}

type ITokenImpl struct {
	iot *IOT
}

func (it *ITokenImpl) Authenticate(ctx context.Context, token string) error {
	return it.iot.authenticate(ctx, strings.TrimSpace(token))
}

func (i *IOT) GetIToken() IToken {
	return &ITokenImpl{iot: i}
}
