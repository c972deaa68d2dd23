package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	listmodels "github.com/azro1/flare-care-sub001/internal/models/list_medications"
	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
	"github.com/azro1/flare-care-sub001/internal/store"
)

type MedicationsHandler struct {
	store  store.ReminderStore
	logger *zap.SugaredLogger
}

func NewMedicationsHandler(reminderStore store.ReminderStore, logger *zap.SugaredLogger) *MedicationsHandler {
	return &MedicationsHandler{store: reminderStore, logger: logger}
}

// ListMedications returns the signed-in user's medication schedule. Clients
// feed this list to the foreground reminder loop.
func (h *MedicationsHandler) ListMedications(c *gin.Context) {
	uid, exists := c.Get("uid")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userUID, ok := uid.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user context"})
		return
	}

	meds, err := h.store.MedicationsForUser(c.Request.Context(), userUID)
	if err != nil {
		h.logError(c, err, "failed to list medications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list medications"})
		return
	}
	if meds == nil {
		meds = []medmodels.Medication{}
	}

	c.JSON(http.StatusOK, listmodels.ListMedicationsResponse{Medications: meds})
}
