package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 代表聊天中的一則訊息，只會新增、不會修改或刪除
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ChatID    primitive.ObjectID `bson:"chatId" json:"chatId"` // 所屬的 Chat
	SenderID  primitive.ObjectID `bson:"senderId" json:"senderId"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
