package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                    uuid.UUID `json:"id"`
	Phone                 string    `json:"phone"`
	Name                  string    `json:"name"`
	Photo                 string    `json:"photo,omitempty"`
	CarModel              string    `json:"car_model,omitempty"`
	CarNumber             string    `json:"car_number,omitempty"`
	TelegramChatID        *int64    `json:"telegram_chat_id,omitempty"` // nil - no notifications
	Rating                float64   `json:"rating"`
	TotalRatings          int       `json:"total_ratings"`
	TotalRidesAsDriver    int       `json:"total_rides_as_driver"`
	TotalRidesAsPassenger int       `json:"total_rides_as_passenger"`
	CreatedAt             time.Time `json:"created_at"`
}
