package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/roadside-assist/internal/auth"
	"github.com/ukydev/roadside-assist/internal/models"
)

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64
	Lon float64
}

func (l Location) String() string {
	return fmt.Sprintf("%.5f,%.5f", l.Lat, l.Lon)
}

// Towns the simulated customers break down near
var cities = []Location{
	{Lat: 6.9271, Lon: 79.8612}, // Colombo
	{Lat: 7.2906, Lon: 80.6337}, // Kandy
	{Lat: 6.0535, Lon: 80.2210}, // Galle
	{Lat: 9.6615, Lon: 80.0255}, // Jaffna
	{Lat: 7.2083, Lon: 79.8358}, // Negombo
	{Lat: 8.3114, Lon: 80.4037}, // Anuradhapura
	{Lat: 6.8868, Lon: 79.9187}, // Nugegoda
	{Lat: 5.9549, Lon: 80.5550}, // Matara
}

// basePrices is what the operator charges per completed job, in LKR.
var basePrices = map[models.ServiceType]float64{
	models.ServiceMechanicalRepair:          4500,
	models.ServiceMechanicalRepairMotorbike: 2000,
	models.ServiceTowing:                    8000,
	models.ServiceTowingHeavy:               15000,
	models.ServiceTowingMotorbike:           3500,
	models.ServiceEVCharging:                3000,
	models.ServiceCarWash:                   1500,
	models.ServiceCarWashSUV:                2000,
	models.ServiceCarWashVan:                2500,
	models.ServiceBatteryJump:               1800,
	models.ServiceTyreRepair:                1200,
}

func jitterLocation(base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

func randomLocation() Location {
	base := cities[rand.Intn(len(cities))]
	return jitterLocation(base, 3000)
}

// plan returns the statuses an operator walks a job through. Roughly one
// job in ten is cancelled before anyone is dispatched.
func plan(r *rand.Rand) []models.RequestStatus {
	switch n := r.Intn(10); {
	case n == 0:
		return []models.RequestStatus{models.StatusCancelled}
	case n < 4:
		return []models.RequestStatus{models.StatusAssigned, models.StatusCompleted}
	default:
		return []models.RequestStatus{models.StatusAssigned, models.StatusInProgress, models.StatusCompleted}
	}
}

// quote returns the base price of serviceType with up to 20% variation,
// rounded to 50 LKR
func quote(r *rand.Rand, serviceType models.ServiceType) float64 {
	base, ok := basePrices[serviceType]
	if !ok {
		base = 2500
	}
	price := base * (0.9 + r.Float64()*0.2)
	return math.Round(price/50) * 50
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func authorizedRequest(method, url, token string, body interface{}, headers map[string]string) (*http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return httpClient.Do(req)
}

func decodeInto(resp *http.Response, expected int, v interface{}) error {
	defer resp.Body.Close()
	if resp.StatusCode != expected {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body.Error)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func createRequest(apiURL, token, userID string, serviceType models.ServiceType, at Location) (*models.ServiceRequest, error) {
	input := models.CreateServiceRequestInput{
		UserID:      userID,
		ServiceType: serviceType,
		Location:    at.String(),
		Notes:       "simulated breakdown",
	}
	resp, err := authorizedRequest(http.MethodPost, apiURL+"/services", token, input, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service request: %w", err)
	}
	var req models.ServiceRequest
	if err := decodeInto(resp, http.StatusCreated, &req); err != nil {
		return nil, fmt.Errorf("service request creation failed: %w", err)
	}

	log.WithFields(log.Fields{
		"request_id":   req.ID.Hex(),
		"user_id":      userID,
		"service_type": serviceType,
		"location":     req.Location,
	}).Info("Created service request")
	return &req, nil
}

func updateStatus(apiURL, token string, current *models.ServiceRequest, status models.RequestStatus, price *float64) (*models.ServiceRequest, error) {
	version := current.Version
	body := models.UpdateStatusInput{Status: status, Price: price, Version: &version}
	resp, err := authorizedRequest(http.MethodPatch, apiURL+"/services/"+current.ID.Hex(), token, body, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to update service request: %w", err)
	}
	var updated models.ServiceRequest
	if err := decodeInto(resp, http.StatusOK, &updated); err != nil {
		return nil, fmt.Errorf("status update to %s failed: %w", status, err)
	}

	log.WithFields(log.Fields{
		"request_id": updated.ID.Hex(),
		"status":     updated.Status,
		"price":      updated.Price,
	}).Info("Advanced service request")
	return &updated, nil
}

func processPayment(apiURL, token string, req *models.ServiceRequest) (*models.ProcessPaymentResult, error) {
	input := models.ProcessPaymentInput{
		UserID:    req.UserID,
		Amount:    req.Price,
		Method:    "card",
		BookingID: req.ID.Hex(),
	}
	// The request id doubles as idempotency key so a retried run never pays twice.
	headers := map[string]string{"Idempotency-Key": "sim-" + req.ID.Hex()}
	resp, err := authorizedRequest(http.MethodPost, apiURL+"/payments/process", token, input, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to process payment: %w", err)
	}
	var result models.ProcessPaymentResult
	if err := decodeInto(resp, http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	log.WithFields(log.Fields{
		"request_id":     req.ID.Hex(),
		"amount":         req.Price,
		"success":        result.Success,
		"transaction_id": result.TransactionID,
	}).Info("Processed payment")
	return &result, nil
}

// tokenSource hands out bearer tokens for the simulated actors.
type tokenSource struct {
	operator string
	signer   *auth.Service
}

func (s *tokenSource) customer(userID string) string {
	if s.signer == nil {
		return s.operator
	}
	token, err := s.signer.GenerateToken(userID, "", models.RoleCustomer)
	if err != nil {
		log.WithError(err).Error("Failed to sign customer token")
		return ""
	}
	return token
}

// runJob books one job as customer and walks it through its lifecycle as
// operator, paying for it when it completes.
func runJob(apiURL string, tokens *tokenSource, customer string, r *rand.Rand, pause time.Duration) error {
	customerToken := tokens.customer(customer)
	serviceType := models.ServiceTypes[r.Intn(len(models.ServiceTypes))]

	req, err := createRequest(apiURL, customerToken, customer, serviceType, randomLocation())
	if err != nil {
		return err
	}

	for _, status := range plan(r) {
		time.Sleep(pause)

		var price *float64
		if status == models.StatusCompleted {
			p := quote(r, serviceType)
			price = &p
		}
		updated, err := updateStatus(apiURL, tokens.operator, req, status, price)
		if err != nil {
			return err
		}
		req = updated
	}

	if req.Status != models.StatusCompleted {
		return nil
	}
	_, err = processPayment(apiURL, customerToken, req)
	return err
}

func simulateCustomer(apiURL string, tokens *tokenSource, customer string, interval time.Duration) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	tick := time.NewTicker(interval * 5)
	defer tick.Stop()
	for {
		if err := runJob(apiURL, tokens, customer, r, interval); err != nil {
			log.WithError(err).WithField("user_id", customer).Error("Simulated job failed")
		}
		<-tick.C
	}
}

func main() {
	// Staff JWT used to advance jobs
	tokens := &tokenSource{operator: os.Getenv("SIM_AUTH_TOKEN")}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		tokens.signer = auth.NewService(secret, time.Hour)
		if tokens.operator == "" {
			t, err := tokens.signer.GenerateToken("simulator", "simulator", models.RoleOperator)
			if err != nil {
				log.WithError(err).Fatal("Failed to sign operator token")
			}
			tokens.operator = t
		}
	}

	customers := 5
	if val := os.Getenv("SIM_CUSTOMERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			customers = n
		}
	}

	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}

	interval := 2 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	if tokens.operator == "" {
		log.Error("Set SIM_AUTH_TOKEN or JWT_SECRET so the simulator can authenticate. Exiting.")
		return
	}

	log.WithFields(log.Fields{
		"customers": customers,
		"api_url":   apiURL,
		"interval":  interval,
	}).Info("Starting roadside assistance simulation")

	for i := 0; i < customers; i++ {
		go simulateCustomer(apiURL, tokens, "sim-customer-"+uuid.NewString()[:8], interval)
	}

	select {} // Block forever
}
