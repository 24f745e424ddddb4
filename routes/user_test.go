package routes

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
)

func TestUpdateUserProfile(t *testing.T) {
	app := buildTestApp(t)

	user := models.User{FirstName: "Awa", LastName: "Fall", Email: "awa@example.com", Role: models.RoleTraveler}
	if err := storage.DB.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	url := fmt.Sprintf("/api/user/%d/profile", user.ID)
	req := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"firstName":"Aminata"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+signTestToken(user.ID, models.RoleTraveler))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("profile update: status %d, body %s", resp.Code, resp.Body.String())
	}

	var got models.User
	if err := storage.DB.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.FirstName != "Aminata" {
		t.Errorf("firstName = %q, want Aminata", got.FirstName)
	}

	// someone else's profile stays forbidden
	req2 := httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"firstName":"Mallory"}`))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("Authorization", "Bearer "+signTestToken(user.ID+1, models.RoleTraveler))
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusForbidden {
		t.Errorf("foreign profile update: status %d, want 403", resp2.Code)
	}
}
