package orderControllers

import (
	"errors"

	"github.com/tienchung1704/real-dinhanstore/errx"
	"github.com/tienchung1704/real-dinhanstore/models"
	"github.com/tienchung1704/real-dinhanstore/pricing"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func datatypesJSON(s models.ProductSnapshot) datatypes.JSONType[models.ProductSnapshot] {
	return datatypes.NewJSONType(s)
}

// AdjustPoints changes a user's balance by delta inside tx and appends a
// ledger row. A revoke never drives the balance below zero; any other kind
// fails instead. It returns the new balance.
func AdjustPoints(tx *gorm.DB, userID uint, orderID *uint, delta int64, kind models.PointKind, note string) (int64, error) {
	var user models.User
	if err := tx.Clauses(forUpdate).Select("id", "points").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errx.NotFound("user not found")
		}
		return 0, err
	}

	balance := user.Points + delta
	if balance < 0 {
		if kind != models.PointKindRevoke {
			return 0, errx.Invalid(pricing.ErrInsufficientPoints)
		}
		delta = -user.Points
		balance = 0
	}
	if delta == 0 {
		return balance, nil
	}

	if err := tx.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("points", balance).Error; err != nil {
		return 0, err
	}
	entry := models.PointTransaction{
		UserID:       userID,
		OrderID:      orderID,
		Kind:         kind,
		Points:       delta,
		BalanceAfter: balance,
		Note:         note,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}
	return balance, nil
}
