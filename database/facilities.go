package database

import (
	"context"
	"log"
	"time"

	"github.com/varunnandan321-gif/blood-connect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mockFacilities 是初始化用的機構資料，只在集合是空的時候寫入一次
var mockFacilities = []models.Facility{
	{
		Name:     "City Central Hospital",
		Type:     "Hospital",
		Location: "Downtown Medical District",
		Contact:  "+1 (555) 123-4567",
		Inventory: map[string]int{
			"A+": 12, "A-": 3, "B+": 8, "B-": 1, "AB+": 5, "AB-": 0, "O+": 15, "O-": 2,
		},
	},
	{
		Name:     "Regional Blood Bank Center",
		Type:     "Blood Bank",
		Location: "Northside Industrial Park",
		Contact:  "+1 (555) 987-6543",
		Inventory: map[string]int{
			"A+": 45, "A-": 12, "B+": 30, "B-": 8, "AB+": 15, "AB-": 4, "O+": 50, "O-": 18,
		},
	},
	{
		Name:     "St. Jude Memorial",
		Type:     "Hospital",
		Location: "West End Suburbs",
		Contact:  "+1 (555) 456-7890",
		Inventory: map[string]int{
			"A+": 4, "A-": 0, "B+": 2, "B-": 0, "AB+": 1, "AB-": 0, "O+": 5, "O-": 1,
		},
	},
}

// GetAllFacilities 獲取所有機構，按名稱排序
func GetAllFacilities() ([]models.Facility, error) {
	collection := GetCollection("facilities")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	findOptions := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		log.Printf("Error finding facilities: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var facilities []models.Facility
	if err = cursor.All(ctx, &facilities); err != nil {
		log.Printf("Error decoding facilities: %v", err)
		return nil, err
	}
	return facilities, nil
}

// SeedFacilities 初始化機構資料
// 只有在集合完全是空的時候才寫入，重複呼叫不會產生重複資料。
// 先數再寫之間沒有交易保護，併發的初始化仍可能重複，
// 但這條路徑只在啟動時執行一次，視為可接受的限制
func SeedFacilities() error {
	collection := GetCollection("facilities")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		log.Printf("Error counting facilities: %v", err)
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("Facilities collection is empty, seeding initial data...")
	for _, fac := range mockFacilities {
		if _, err := collection.InsertOne(ctx, fac); err != nil {
			log.Printf("Error seeding facility %s: %v", fac.Name, err)
			return err
		}
	}
	log.Printf("Seeded %d facilities.", len(mockFacilities))
	return nil
}
