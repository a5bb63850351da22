package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/travelbooking/config"
	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
	"github.com/Domenick1991/travelbooking/internal/service/booking"
	"github.com/Domenick1991/travelbooking/internal/service/datasets"
	"github.com/Domenick1991/travelbooking/internal/service/search"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher struct{}

func (staticFetcher) FetchFresh(context.Context) *domain.Dataset {
	return &domain.Dataset{
		Expires: domain.TimestampSpec{Value: "2024-08-31 23:59:59.000000", TimezoneType: domain.TimezoneTypeAbbreviation, Timezone: domain.TimezoneZulu},
		Routes: []domain.Route{{
			ExternalID:      "london-paris",
			OriginName:      "London",
			DestinationName: "Paris",
			DistanceKm:      350,
			Schedules:       []domain.Schedule{{ExternalID: "s1", Price: 50, OperatorStatus: "NoBus"}},
		}},
	}
}

func newTestRouter(now *time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	clock := func() time.Time { return *now }
	dsSvc := datasets.NewDatasetService(repository.NewMemoryDatasetRepository(), staticFetcher{}, datasets.WithClock(clock))
	return NewRouter(config.HTTPConfig{}, Services{
		Datasets: dsSvc,
		Search:   search.NewSearchService(dsSvc),
		Bookings: booking.NewBookingService(repository.NewMemoryBookingRepository(), dsSvc, nil, ""),
	})
}

func do(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_BookingLifecycle(t *testing.T) {
	now := time.Date(2024, 8, 30, 12, 0, 0, 0, time.UTC)
	router := newTestRouter(&now)

	w := do(router, http.MethodGet, "/search?start=London&end=Paris", "")
	require.Equal(t, http.StatusOK, w.Code)
	var res search.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Items, 1)
	route := res.Items[0]

	body, _ := json.Marshal(map[string]interface{}{
		"dataset_id":  res.DatasetID,
		"route_id":    route.ID,
		"schedule_id": route.Schedules[0].ID,
		"first_name":  "Mari",
		"last_name":   "Tamm",
	})
	w = do(router, http.MethodPost, "/bookings", string(body))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = do(router, http.MethodGet, "/bookings/1/cancellable", "")
	assert.JSONEq(t, `{"booking_id":1,"cancellable":false}`, w.Body.String())

	w = do(router, http.MethodDelete, "/bookings/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	now = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	w = do(router, http.MethodGet, "/bookings/1/cancellable", "")
	assert.JSONEq(t, `{"booking_id":1,"cancellable":true}`, w.Body.String())

	w = do(router, http.MethodGet, "/bookings/1/ticket", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodDelete, "/bookings/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/bookings/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(1), created.ID)
}

func TestRouter_Datasets(t *testing.T) {
	now := time.Date(2024, 8, 30, 12, 0, 0, 0, time.UTC)
	router := newTestRouter(&now)

	w := do(router, http.MethodGet, "/datasets/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodGet, "/datasets/latest", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/datasets/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RequestID(t *testing.T) {
	now := time.Now()
	router := newTestRouter(&now)

	w := do(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(requestIDHeader))
}

func TestCorsConfig(t *testing.T) {
	all := corsConfig(nil)
	assert.True(t, all.AllowAllOrigins)
	assert.NoError(t, all.Validate())

	some := corsConfig([]string{"https://example.com"})
	assert.False(t, some.AllowAllOrigins)
	assert.Equal(t, []string{"https://example.com"}, some.AllowOrigins)
	assert.NoError(t, some.Validate())
}
