package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"mindwell/config"
	"mindwell/database"
	counselorRepo "mindwell/database/repository/counselor"
	"mindwell/models"
	"mindwell/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	firstNames = map[models.Gender][]string{
		models.GenderFemale: {"Amina", "Grace", "Wanjiru", "Sofia", "Leila", "Njeri"},
		models.GenderMale:   {"David", "Omar", "Brian", "Kamau", "Samuel", "Ivan"},
	}
	specializations = []string{"anxiety", "depression", "grief", "relationships", "stress", "trauma", "addiction"}
	sessionTypes    = []models.SessionType{models.SessionVideoCall, models.SessionAudioCall, models.SessionChat, models.SessionInPerson}
)

func main() {
	perGender := flag.Int("per-gender", 5, "counselors to create for each gender")
	reset := flag.Bool("reset", false, "delete existing counselors first")
	flag.Parse()

	config.LoadConfig()
	database.InitDB()
	defer database.Disconnect(context.Background())

	db := database.Database()
	repo, err := counselorRepo.NewMongoCounselorRepo(db)
	if err != nil {
		log.Fatalf("Failed to prepare counselor repository: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if *reset {
		if _, err := db.Collection("counselors").DeleteMany(ctx, bson.M{}); err != nil {
			log.Fatalf("Failed to clear counselors collection: %v", err)
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var created []models.Counselor
	for _, gender := range []models.Gender{models.GenderFemale, models.GenderMale} {
		for i := 0; i < *perGender; i++ {
			c := randomCounselor(rng, gender, i)
			if err := repo.Create(ctx, &c); err != nil {
				log.Fatalf("Failed to insert counselor %s: %v", c.Name, err)
			}
			created = append(created, c)
		}
	}
	log.Printf("Inserted %d counselors", len(created))

	if config.AppConfig.JWTSecret == "" {
		log.Println("JWT_SECRET not set, skipping sample tokens")
		return
	}
	for _, gender := range []models.Gender{models.GenderFemale, models.GenderMale} {
		tok, err := utils.GenerateToken(models.Identity{UserID: uuid.NewString(), Gender: gender, Role: models.RoleUser}, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Printf("user (%s): %s\n", gender, tok)
	}
	for _, c := range created {
		tok, err := utils.GenerateToken(models.Identity{UserID: c.ID, Gender: c.Gender, Role: models.RoleCounselor}, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Printf("counselor %s (%s): %s\n", c.Name, c.ID, tok)
	}
}

func randomCounselor(rng *rand.Rand, gender models.Gender, i int) models.Counselor {
	names := firstNames[gender]
	specs := rng.Perm(len(specializations))[:2+rng.Intn(2)]
	c := models.Counselor{
		ID:                     uuid.NewString(),
		Name:                   fmt.Sprintf("Dr. %s %c.", names[i%len(names)], 'A'+rune(rng.Intn(26))),
		Title:                  "Licensed Counselor",
		Gender:                 gender,
		SessionTypes:           []models.SessionType{models.SessionVideoCall},
		SessionDurationMinutes: []int{45, 50, 60}[rng.Intn(3)],
		Availability: models.CounselorAvailability{
			MaxPatientsPerDay: 4 + rng.Intn(6),
			AllowsNewPatients: rng.Intn(10) > 0,
			RequiresApproval:  rng.Intn(2) == 0,
		},
		Pricing:    models.Pricing{SessionFee: float64(20 + 5*rng.Intn(9)), Currency: "USD"},
		IsActive:   true,
		IsVerified: rng.Intn(8) > 0,
	}
	for _, idx := range specs {
		c.Specializations = append(c.Specializations, specializations[idx])
	}
	for _, st := range sessionTypes[1:] {
		if rng.Intn(2) == 0 {
			c.SessionTypes = append(c.SessionTypes, st)
		}
	}
	return c
}
