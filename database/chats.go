package database

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatStore 實作 chat.Store 介面，所有方法都委派給本套件的函式
type ChatStore struct{}

func (ChatStore) FindByRequestAndParticipants(ctx context.Context, requestID primitive.ObjectID, participants []primitive.ObjectID) (*models.Chat, error) {
	return FindChatByRequestAndParticipants(requestID, participants)
}

func (ChatStore) InsertChat(ctx context.Context, chat models.Chat) (primitive.ObjectID, error) {
	result, err := InsertChat(chat)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

func (ChatStore) InsertMessage(ctx context.Context, message models.Message) (primitive.ObjectID, error) {
	result, err := InsertChatMessage(message)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

func (ChatStore) SetLastMessage(ctx context.Context, chatID primitive.ObjectID, text string, at time.Time) error {
	return UpdateChatLastMessage(chatID, text, at)
}

// FindChatByRequestAndParticipants 尋找某筆請求下、指定參與者組合的既有聊天
// participants 必須已經排序成標準順序，找不到時返回 (nil, nil)
func FindChatByRequestAndParticipants(requestID primitive.ObjectID, participants []primitive.ObjectID) (*models.Chat, error) {
	collection := GetCollection("chats")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var chat models.Chat
	err := collection.FindOne(ctx, bson.M{
		"requestId":    requestID,
		"participants": participants,
	}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		log.Printf("Error finding chat for request %s: %v", requestID.Hex(), err)
		return nil, err
	}
	return &chat, nil
}

// InsertChat 將新的聊天插入到資料庫
func InsertChat(chat models.Chat) (*mongo.InsertOneResult, error) {
	collection := GetCollection("chats")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := collection.InsertOne(ctx, chat)
	if err != nil {
		log.Printf("Error inserting chat: %v", err)
		return nil, err
	}
	return result, nil
}

// GetChatByID 透過 ID 尋找聊天
func GetChatByID(id primitive.ObjectID) (*models.Chat, error) {
	collection := GetCollection("chats")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var chat models.Chat
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetUserChats 獲取使用者參與的所有聊天
// 從資料庫取回時不排序，改在本地按 updatedAt 由新到舊排序，
// 避免依賴資料庫端的複合排序索引
func GetUserChats(userID primitive.ObjectID) ([]models.Chat, error) {
	collection := GetCollection("chats")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := collection.Find(ctx, bson.M{"participants": userID})
	if err != nil {
		log.Printf("Error finding chats for user %s: %v", userID.Hex(), err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var chats []models.Chat
	if err = cursor.All(ctx, &chats); err != nil {
		log.Printf("Error decoding chats: %v", err)
		return nil, err
	}

	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

// UpdateChatLastMessage 更新聊天的最後一則訊息摘要與更新時間
func UpdateChatLastMessage(chatID primitive.ObjectID, text string, at time.Time) error {
	collection := GetCollection("chats")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"lastMessage": text,
		"updatedAt":   at,
	}}
	_, err := collection.UpdateOne(ctx, bson.M{"_id": chatID}, update)
	if err != nil {
		log.Printf("Error updating last message for chat %s: %v", chatID.Hex(), err)
	}
	return err
}

// InsertChatMessage 將新的聊天訊息插入到資料庫
func InsertChatMessage(message models.Message) (*mongo.InsertOneResult, error) {
	collection := GetCollection("messages")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := collection.InsertOne(ctx, message)
	if err != nil {
		log.Printf("Error inserting message: %v", err)
		return nil, err
	}
	return result, nil
}

// GetChatMessages 獲取指定聊天的歷史訊息，按時間由舊到新排序
func GetChatMessages(chatID primitive.ObjectID) ([]models.Message, error) {
	collection := GetCollection("messages")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"chatId": chatID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		log.Printf("Error finding messages for chat %s: %v", chatID.Hex(), err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		log.Printf("Error decoding messages for chat %s: %v", chatID.Hex(), err)
		return nil, err
	}
	return messages, nil
}
