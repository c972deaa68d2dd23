package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	listmodels "github.com/azro1/flare-care-sub001/internal/models/list_medications"
	medmodels "github.com/azro1/flare-care-sub001/internal/models/medication"
)

func performList(h *MedicationsHandler, uid string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/medications/list", nil)
	if uid != "" {
		c.Set("uid", uid)
	}
	h.ListMedications(c)
	return w
}

func TestListMedicationsReturnsUserSchedule(t *testing.T) {
	st := &mockStore{
		medicationsForUserFn: func(ctx context.Context, userUID string) ([]medmodels.Medication, error) {
			assert.Equal(t, "user-1", userUID)
			return []medmodels.Medication{dueMedication("m1", "Azathioprine", userUID, "08:00")}, nil
		},
	}
	h := NewMedicationsHandler(st, zap.NewNop().Sugar())

	w := performList(h, "user-1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp listmodels.ListMedicationsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Medications, 1)
	assert.Equal(t, "Azathioprine", resp.Medications[0].Name)
}

func TestListMedicationsEmptyScheduleIsNotNull(t *testing.T) {
	h := NewMedicationsHandler(&mockStore{}, zap.NewNop().Sugar())

	w := performList(h, "user-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"medications":[]`)
}

func TestListMedicationsRequiresUser(t *testing.T) {
	h := NewMedicationsHandler(&mockStore{}, zap.NewNop().Sugar())

	assert.Equal(t, http.StatusUnauthorized, performList(h, "").Code)
}

func TestListMedicationsStoreFailure(t *testing.T) {
	st := &mockStore{
		medicationsForUserFn: func(ctx context.Context, userUID string) ([]medmodels.Medication, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewMedicationsHandler(st, zap.NewNop().Sugar())

	assert.Equal(t, http.StatusInternalServerError, performList(h, "user-1").Code)
}
