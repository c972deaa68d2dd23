package models

import (
	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
)

type ListMedicationsResponse struct {
	Medications []medmodels.Medication `json:"medications"`
}
