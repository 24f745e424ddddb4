package routes

import (
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/storage"
	"github.com/Discovery-supp/Nzoo-immo-concerigerie/utils"

	"github.com/kataras/iris/v12"
)

// GetUserNotifications lists the caller's notifications, newest first.
func GetUserNotifications(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var notifications []models.Notification
	res := storage.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications)

	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var unread int64
	storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread)

	ctx.JSON(iris.Map{
		"notifications": notifications,
		"unread":        unread,
	})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(ctx iris.Context) {
	notificationID := ctx.Params().Get("id")
	userID := ctx.Values().Get("userID").(uint)

	var notification models.Notification
	err := storage.DB.Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error
	if err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Notification not found", ctx)
		return
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if saveErr := storage.DB.Save(&notification).Error; saveErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(notification)
}

// MarkAllNotificationsRead marks every unread notification of the caller.
func MarkAllNotificationsRead(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	now := time.Now()
	res := storage.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})

	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"updated": res.RowsAffected})
}
