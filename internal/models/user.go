// Package models contains the data structures used throughout the application.
package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered user of the gateway. Users are created once on
// first contact and never mutated afterwards. Deletion is an administrative
// action outside the application.
type User struct {
	// ID is the internal identifier for the user.
	ID bson.ObjectID `json:"id" bson:"_id,omitempty"`

	// ChatID is the unique identifier of the user on the delivery channel.
	ChatID int64 `json:"chatId" bson:"chatId"`

	// Username is the user's handle on the delivery channel, if any.
	Username string `json:"username,omitempty" bson:"username,omitempty"`

	// DisplayName is the user's human-readable name, if any.
	DisplayName string `json:"displayName,omitempty" bson:"displayName,omitempty"`

	// ObjectTimes contains timestamps for this user.
	ObjectTimes `bson:",inline"`
}
