package server

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agrinos/plantclassifier/users"
)

// Prediction is one analysed upload.
type Prediction struct {
	ID          string         `json:"predictionId"`
	UserID      string         `json:"-"`
	Filename    string         `json:"filename"`
	ContentType string         `json:"contentType"`
	Size        int64          `json:"size"`
	CreatedAt   time.Time      `json:"createdAt"`
	Result      map[string]any `json:"result"`
}

type SensorReading struct {
	Zone       string    `json:"zone"`
	RecordedAt time.Time `json:"recordedAt"`
	Nitrogen   float64   `json:"nitrogen"`
	Phosphorus float64   `json:"phosphorus"`
	Potassium  float64   `json:"potassium"`
	PH         float64   `json:"ph"`
	Moisture   float64   `json:"moisture"`
}

// Plant is a knowledge-base entry.
type Plant struct {
	Species        string   `json:"species"`
	CommonName     string   `json:"commonName"`
	ScientificName string   `json:"scientificName"`
	Medicinal      bool     `json:"medicinal"`
	Uses           []string `json:"uses"`
	CommonDiseases []string `json:"commonDiseases"`
}

// Records holds the in-memory analysis history, sensor feed and plant
// knowledge base of the development backend.
type Records struct {
	mu          sync.RWMutex
	predictions map[string][]Prediction
	sensors     []SensorReading
	plants      map[string]Plant
}

func NewRecords() *Records {
	return &Records{
		predictions: make(map[string][]Prediction),
		sensors:     seedSensors(NowTimeFunc()),
		plants:      seedPlants(),
	}
}

func (rs *Records) AddPrediction(p Prediction) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.predictions[p.UserID] = append(rs.predictions[p.UserID], p)
}

// Predictions lists the analyses of userID, newest first.
func (rs *Records) Predictions(userID string) []Prediction {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	list := append([]Prediction{}, rs.predictions[userID]...)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func (rs *Records) Sensors() []SensorReading {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return append([]SensorReading{}, rs.sensors...)
}

// Plants lists the knowledge base ordered by species key.
func (rs *Records) Plants() []Plant {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	list := make([]Plant, 0, len(rs.plants))
	for _, p := range rs.plants {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Species < list[j].Species
	})
	return list
}

// Plant looks up species case-insensitively.
func (rs *Records) Plant(species string) (Plant, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	p, ok := rs.plants[strings.ToLower(strings.TrimSpace(species))]
	return p, ok
}

func seedSensors(now time.Time) []SensorReading {
	base := SensorReading{Nitrogen: 45, Phosphorus: 32, Potassium: 38, PH: 6.5, Moisture: 65}
	readings := make([]SensorReading, 0, 12)
	for day := 5; day >= 0; day-- {
		for i, zone := range []string{"A", "B"} {
			r := base
			r.Zone = zone
			r.RecordedAt = now.Add(-time.Duration(day) * 24 * time.Hour).Truncate(time.Hour)
			r.Nitrogen -= float64(day+i*3) * 1.5
			r.Moisture += float64(day%3) * 2
			r.PH += float64(i) * 0.2
			readings = append(readings, r)
		}
	}
	return readings
}

func seedPlants() map[string]Plant {
	plants := []Plant{
		{
			Species:        "tomato",
			CommonName:     "Tomato",
			ScientificName: "Solanum lycopersicum",
			Uses:           []string{"food", "antioxidant source"},
			CommonDiseases: []string{"Early Blight", "Late Blight", "Leaf Mold"},
		},
		{
			Species:        "aloe-vera",
			CommonName:     "Aloe Vera",
			ScientificName: "Aloe barbadensis miller",
			Medicinal:      true,
			Uses:           []string{"skin care", "burn treatment"},
			CommonDiseases: []string{"Root Rot", "Leaf Spot"},
		},
		{
			Species:        "turmeric",
			CommonName:     "Turmeric",
			ScientificName: "Curcuma longa",
			Medicinal:      true,
			Uses:           []string{"anti-inflammatory", "spice"},
			CommonDiseases: []string{"Rhizome Rot", "Leaf Blotch"},
		},
		{
			Species:        "neem",
			CommonName:     "Neem",
			ScientificName: "Azadirachta indica",
			Medicinal:      true,
			Uses:           []string{"antibacterial", "pest control"},
			CommonDiseases: []string{"Powdery Mildew", "Twig Blight"},
		},
	}
	m := make(map[string]Plant, len(plants))
	for _, p := range plants {
		m[p.Species] = p
	}
	return m
}

func farmerAnalysis() map[string]any {
	return map[string]any{
		"plantStatus":        "Diseased",
		"diseaseName":        "Early Blight",
		"qualityScore":       68,
		"vulnerabilityScore": 72,
		"medicinalValue":     "Low",
		"marketPrice":        "$2.15/kg",
		"suggestions": []string{
			"Apply copper-based fungicide within 24-48 hours",
			"Remove and destroy infected leaves",
			"Improve air circulation around plants",
		},
		"confidence": 94,
	}
}

func agriculturalAnalysis() map[string]any {
	return map[string]any{
		"species":            "Solanum lycopersicum (Tomato)",
		"fertilityIndex":     76,
		"diseaseProbability": 78,
		"growthStage":        "Vegetative",
		"nutrients": map[string]any{
			"nitrogen":  42,
			"phosphate": 35,
			"potassium": 38,
		},
		"alerts": []string{
			"Disease detected: Early intervention recommended",
			"Nitrogen levels slightly below optimal",
		},
	}
}

func pharmaceuticalAnalysis() map[string]any {
	return map[string]any{
		"plantIdentity":    "Solanum lycopersicum",
		"healthValue":      72,
		"healthPercentage": 68,
		"status":           "Diseased",
		"isCurable":        true,
		"treatments": []string{
			"Fungicidal treatment with copper compounds",
			"Biological control using Bacillus subtilis",
		},
		"sideEffects": []string{
			"Reduced medicinal alkaloid content",
			"Lower market value for medicinal purposes",
		},
	}
}

// analysisFor returns the role-specific view of a diagnosis. Admins see all views.
func analysisFor(role users.Role) map[string]any {
	switch role {
	case users.RoleFarmer:
		return farmerAnalysis()
	case users.RoleAgriculturalIndustry:
		return agriculturalAnalysis()
	case users.RolePharmaceuticalIndustry:
		return pharmaceuticalAnalysis()
	default:
		return map[string]any{
			string(users.DisplayFarmer):         farmerAnalysis(),
			string(users.DisplayAgricultural):   agriculturalAnalysis(),
			string(users.DisplayPharmaceutical): pharmaceuticalAnalysis(),
		}
	}
}
