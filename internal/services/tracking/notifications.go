package tracking

import (
	"time"

	"github.com/BearBump/PizzaTrack/internal/models"
)

const toastDurationMS = 15000

const orderReceivedBody = "Your order was received and the Pizza is on its way. " +
	"The Pizza is free if it is too late, too cold, or dropped."

var promotionToasts = map[models.PromotionReason]struct{ subtitle, body string }{
	models.PromotionFlipped: {"7 seconds ago", "Your Pizza was flipped and landed upside down. It is now a mess but also free of charge."},
	models.PromotionCold:    {"5 seconds ago", "Your Pizza temperature is below 40 degrees and is now free of charge."},
	models.PromotionLate:    {"1 second ago", "Oops! The delivery is running late and the Pizza is now free of charge."},
}

func orderReceived(sessionID, pizza string, now time.Time) models.Notification {
	return models.Notification{
		Title:      pizza,
		Subtitle:   "1 second ago",
		Body:       orderReceivedBody,
		Kind:       models.NotificationSuccess,
		DurationMS: toastDurationMS,
		SessionID:  sessionID,
		CreatedAt:  now,
	}
}

func freePizza(sessionID string, reason models.PromotionReason, now time.Time) models.Notification {
	t := promotionToasts[reason]
	return models.Notification{
		Title:      "Free Pizza!",
		Subtitle:   t.subtitle,
		Body:       t.body,
		Kind:       models.NotificationSuccess,
		DurationMS: toastDurationMS,
		SessionID:  sessionID,
		CreatedAt:  now,
	}
}
