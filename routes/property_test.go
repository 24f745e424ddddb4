package routes

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
)

func TestGetOwnerProperties(t *testing.T) {
	app := buildTestApp(t)

	const ownerID, otherOwnerID = 7, 8
	active := true
	mine := models.Property{OwnerID: ownerID, Title: "Appartement Tevragh Zeina", Type: "apartment", PricePerNight: 80, MinNights: 1, MaxNights: 30, IsActive: &active}
	theirs := models.Property{OwnerID: otherOwnerID, Title: "Villa Las Palmas", Type: "villa", PricePerNight: 200, MinNights: 1, MaxNights: 30, IsActive: &active}
	for _, p := range []*models.Property{&mine, &theirs} {
		if err := storage.DB.Create(p).Error; err != nil {
			t.Fatalf("seed property: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/property/owner/mine", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(ownerID, models.RoleOwner))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("owner properties: status %d, body %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	if !strings.Contains(body, "Appartement Tevragh Zeina") {
		t.Errorf("owner's listing missing from response: %s", body)
	}
	if strings.Contains(body, "Villa Las Palmas") {
		t.Errorf("another owner's listing leaked into response: %s", body)
	}
}

func TestCreateReviewOnePerReservation(t *testing.T) {
	app := buildTestApp(t)

	const guestID = 5
	active := true
	property := models.Property{OwnerID: 1, Title: "Riad Ksar", Type: "house", PricePerNight: 90, MinNights: 1, MaxNights: 30, IsActive: &active}
	if err := storage.DB.Create(&property).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}
	stay := models.Reservation{
		PropertyID: property.ID, GuestID: guestID,
		CheckIn:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC),
		Status:   models.ReservationCompleted,
	}
	if err := storage.DB.Create(&stay).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	post := func() *httptest.ResponseRecorder {
		url := fmt.Sprintf("/api/property/%d/review", property.ID)
		body := fmt.Sprintf(`{"reservationID":%d,"rating":5,"comment":"Parfait"}`, stay.ID)
		req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+signTestToken(guestID, models.RoleTraveler))
		resp := httptest.NewRecorder()
		app.ServeHTTP(resp, req)
		return resp
	}

	resp := post()
	if resp.Code != http.StatusCreated {
		t.Fatalf("first review: status %d, body %s", resp.Code, resp.Body.String())
	}

	resp = post()
	if resp.Code != http.StatusConflict {
		t.Errorf("second review for the same stay: status %d, want 409", resp.Code)
	}

	var count int64
	storage.DB.Model(&models.Review{}).Count(&count)
	if count != 1 {
		t.Errorf("review count = %d, want 1", count)
	}
}
