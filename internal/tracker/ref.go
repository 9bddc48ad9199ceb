package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/zulandar/issuedesk/internal/models"
	"gorm.io/gorm"
)

// ContributorRef identifies a contributor either by numeric ID or by
// username. Exactly one side is set; the zero value means absent.
type ContributorRef struct {
	ID   uint
	Name string
}

// IsZero reports whether the reference is absent.
func (r ContributorRef) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

// UnmarshalJSON accepts a JSON number, a numeric string, or a username
// string. Numeric strings are treated as IDs, so clients posting form
// values keep working.
func (r *ContributorRef) UnmarshalJSON(data []byte) error {
	var asNumber uint
	if err := json.Unmarshal(data, &asNumber); err == nil {
		r.ID = asNumber
		r.Name = ""
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("contributor reference must be an id or a username")
	}
	if id, err := strconv.ParseUint(asString, 10, 64); err == nil {
		r.ID = uint(id)
		r.Name = ""
		return nil
	}
	r.ID = 0
	r.Name = asString
	return nil
}

// ResolveContributor looks up the contributor a reference points at,
// failing with a validation error when neither side resolves.
func ResolveContributor(db *gorm.DB, ref ContributorRef) (*models.Contributor, error) {
	var contributor models.Contributor

	if ref.ID != 0 {
		err := db.Preload("Account").First(&contributor, ref.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Validationf("contributor with ID %d does not exist", ref.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("tracker: resolve contributor %d: %w", ref.ID, err)
		}
		return &contributor, nil
	}

	err := db.Preload("Account").
		Joins("JOIN accounts ON accounts.id = contributors.account_id").
		Where("accounts.username = ?", ref.Name).
		First(&contributor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Validationf("contributor with username %q does not exist", ref.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: resolve contributor %q: %w", ref.Name, err)
	}
	return &contributor, nil
}
