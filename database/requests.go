package database

import (
	"context"
	"log"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertRequest 將新的血液請求插入到資料庫
func InsertRequest(request models.Request) (*mongo.InsertOneResult, error) {
	collection := GetCollection("requests")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := collection.InsertOne(ctx, request)
	if err != nil {
		log.Printf("Error inserting request: %v", err)
		return nil, err
	}
	return result, nil
}

// GetAllRequests 獲取所有請求，按建立時間由新到舊排序
// 鏡像每次都整批重新讀取完整的有序集合
func GetAllRequests(ctx context.Context) ([]models.Request, error) {
	collection := GetCollection("requests")

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		log.Printf("Error finding requests: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var requests []models.Request
	if err = cursor.All(ctx, &requests); err != nil {
		log.Printf("Error decoding requests: %v", err)
		return nil, err
	}
	return requests, nil
}

// GetRequestByID 透過 ID 尋找請求
func GetRequestByID(id primitive.ObjectID) (*models.Request, error) {
	collection := GetCollection("requests")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var request models.Request
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// FulfillRequest 將請求標記為已完成
// 過濾條件同時要求狀態是 active 且 requesterId 是本人，
// 狀態因此只能單向前進 (active -> fulfilled)，也只有請求者本人能關閉
// 返回是否真的有更新到文件
func FulfillRequest(id, requesterID primitive.ObjectID) (bool, error) {
	collection := GetCollection("requests")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id":         id,
		"requesterId": requesterID,
		"status":      models.RequestStatusActive,
	}
	update := bson.M{"$set": bson.M{
		"status":    models.RequestStatusFulfilled,
		"updatedAt": time.Now(),
	}}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		log.Printf("Error fulfilling request %s: %v", id.Hex(), err)
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// DeleteRequest 強制刪除一筆請求（管理員操作）
func DeleteRequest(id primitive.ObjectID) error {
	collection := GetCollection("requests")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Printf("Error deleting request %s: %v", id.Hex(), err)
	}
	return err
}
