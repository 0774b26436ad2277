package database

import (
	"context"
	"log"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// InsertUser 將新使用者插入到資料庫
func InsertUser(user models.User) (*mongo.InsertOneResult, error) {
	collection := GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := collection.InsertOne(ctx, user)
	if err != nil {
		log.Printf("Error inserting user: %v", err)
		return nil, err
	}
	return result, nil
}

// GetUserByEmail 透過 Email 尋找使用者，找不到時返回 mongo.ErrNoDocuments
func GetUserByEmail(email string) (*models.User, error) {
	collection := GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID 透過 ID 尋找使用者
func GetUserByID(id primitive.ObjectID) (*models.User, error) {
	collection := GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var user models.User
	err := collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserProfile 更新捐血者資料，並將 isRegisteredDonor 設為 true
func UpdateUserProfile(id primitive.ObjectID, profile models.UpdateProfileRequest) error {
	collection := GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":              profile.Name,
		"bloodGroup":        profile.BloodGroup,
		"location":          profile.Location,
		"contact":           profile.Contact,
		"medicalConditions": profile.MedicalConditions,
		"available":         profile.Available,
		"isRegisteredDonor": true,
		"updatedAt":         time.Now(),
	}}

	_, err := collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		log.Printf("Error updating user profile %s: %v", id.Hex(), err)
	}
	return err
}

// GetAllUsers 獲取所有使用者（管理員用）
func GetAllUsers() ([]models.User, error) {
	collection := GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := collection.Find(ctx, bson.M{})
	if err != nil {
		log.Printf("Error finding all users: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		log.Printf("Error decoding users: %v", err)
		return nil, err
	}
	return users, nil
}

// DeleteUser 不可逆地刪除一位使用者（管理員操作）
// 返回是否真的有刪除到文件
func DeleteUser(id primitive.ObjectID) (bool, error) {
	collection := GetCollection("users")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Printf("Error deleting user %s: %v", id.Hex(), err)
		return false, err
	}
	return result.DeletedCount > 0, nil
}
