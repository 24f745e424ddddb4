package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"

	"gorm.io/gorm"
)

const expoPushEndpoint = "https://exp.host/--/api/v2/push/send"

// NotificationService records in-app notifications and forwards them to the
// user's registered push tokens. Push delivery is best effort; the database
// row is the source of truth.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

type expoPushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notify stores a notification row for the user and pushes it to their
// devices if they allow notifications.
func (ns *NotificationService) Notify(userID uint, notifType, title, message, refType string, refID uint) {
	notification := models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		RefType: refType,
		RefID:   refID,
	}
	if err := ns.db.Create(&notification).Error; err != nil {
		log.Printf("notifications: failed to store notification for user %d: %v", userID, err)
		return
	}

	ns.push(userID, title, message, map[string]string{
		"type":    notifType,
		"refType": refType,
		"refID":   fmt.Sprintf("%d", refID),
	})
}

// NotifyReservationRequested tells a host about a new booking request.
func (ns *NotificationService) NotifyReservationRequested(reservation *models.Reservation, property *models.Property, guest *models.User) {
	message := fmt.Sprintf("%s %s requested %s from %s to %s",
		guest.FirstName, guest.LastName, property.Title,
		reservation.CheckIn.Format("Jan 2, 2006"), reservation.CheckOut.Format("Jan 2, 2006"))
	ns.Notify(property.OwnerID, "reservation_request", "New Reservation Request", message, "reservation", reservation.ID)
}

// NotifyReservationStatus tells the guest their reservation changed state.
func (ns *NotificationService) NotifyReservationStatus(reservation *models.Reservation, property *models.Property) {
	message := fmt.Sprintf("Your reservation for %s is now %s", property.Title, reservation.Status)
	ns.Notify(reservation.GuestID, "reservation_status", "Reservation Update", message, "reservation", reservation.ID)
}

func (ns *NotificationService) push(userID uint, title, body string, data map[string]string) {
	var user models.User
	if err := ns.db.First(&user, userID).Error; err != nil {
		log.Printf("notifications: user %d not found: %v", userID, err)
		return
	}
	if user.AllowsNotifications == nil || !*user.AllowsNotifications || user.PushTokens == nil {
		return
	}

	var tokens []string
	if err := json.Unmarshal(user.PushTokens, &tokens); err != nil {
		log.Printf("notifications: bad push tokens for user %d: %v", userID, err)
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	for _, token := range tokens {
		payload, err := json.Marshal(expoPushMessage{To: token, Title: title, Body: body, Data: data})
		if err != nil {
			continue
		}
		res, err := client.Post(expoPushEndpoint, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("notifications: push to user %d failed: %v", userID, err)
			continue
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			log.Printf("notifications: push to user %d returned %d", userID, res.StatusCode)
		}
	}
}
