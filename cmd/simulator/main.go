package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const vinAlphabet = "ABCDEFGHJKLMNPRSTUVWXYZ0123456789"

var (
	makes = map[string][]string{
		"Toyota":  {"Corolla", "Camry", "RAV4"},
		"Honda":   {"Civic", "Accord", "CR-V"},
		"Ford":    {"Focus", "F-150", "Mustang"},
		"Hyundai": {"i20", "Tucson", "Ioniq 5"},
	}
	serviceTypes = []string{"Oil change", "Brake service", "Tyre rotation", "General inspection", "AC repair"}
	laborTasks   = []struct {
		Task  string
		Hours float64
	}{
		{"Diagnostics", 0.5},
		{"Replace brake pads", 1.5},
		{"Engine oil and filter", 1},
		{"Wheel alignment", 0.75},
	}
	parts = []struct {
		Name  string
		Price float64
	}{
		{"Oil filter", 12.5},
		{"Brake pad set", 45},
		{"Air filter", 18},
		{"Wiper blade", 9.99},
	}
)

// apiError is a non-2xx response from the API.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.Status, e.Message)
}

// Client calls the service center API as one account.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func newClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{Timeout: 10 * time.Second}}
}

// as returns a copy of c authenticated with token.
func (c *Client) as(token string) *Client {
	clone := *c
	clone.Token = token
	return &clone
}

// call sends body as JSON and decodes the data field of the response into out.
func (c *Client) call(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	req, err := http.NewRequest(method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return &apiError{Status: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

type entity struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type account struct {
	Token string
	ID    string
}

func register(c *Client, username, role string) (account, error) {
	var resp struct {
		Token string `json:"token"`
		User  entity `json:"user"`
	}
	err := c.call(http.MethodPost, "/auth/register", map[string]string{
		"username":      username,
		"email":         username + "@sim.example",
		"password":      "simulator-pass",
		"role":          role,
		"business_name": "Sim " + username,
	}, &resp)
	if err != nil {
		return account{}, fmt.Errorf("failed to register %s: %w", username, err)
	}
	return account{Token: resp.Token, ID: resp.User.ID}, nil
}

func randomVIN(rng *rand.Rand) string {
	b := make([]byte, 17)
	for i := range b {
		b[i] = vinAlphabet[rng.Intn(len(vinAlphabet))]
	}
	return string(b)
}

// Result summarises one simulated visit.
type Result struct {
	BookingID string
	InvoiceID string
	Total     float64
	Rating    int
}

// Simulator walks bookings through the whole workflow: booking, approval,
// job card, labor and parts, completion, invoice, payment and review.
type Simulator struct {
	api      *Client
	center   *Client
	customer *Client
	centerID string
	mechanic string
	rng      *rand.Rand
}

// Setup registers a service center with one mechanic and a customer.
func Setup(baseURL string, rng *rand.Rand) (*Simulator, error) {
	api := newClient(baseURL)
	suffix := strings.Split(uuid.NewString(), "-")[0]

	center, err := register(api, "center"+suffix, "service_center")
	if err != nil {
		return nil, err
	}
	customer, err := register(api, "customer"+suffix, "customer")
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		api:      api,
		center:   api.as(center.Token),
		customer: api.as(customer.Token),
		centerID: center.ID,
		rng:      rng,
	}

	var mechanic entity
	err = s.center.call(http.MethodPost, "/team-members", map[string]interface{}{
		"name":        "Sim Mechanic " + suffix,
		"role":        "mechanic",
		"hourly_rate": 40 + float64(rng.Intn(30)),
	}, &mechanic)
	if err != nil {
		return nil, fmt.Errorf("failed to add mechanic: %w", err)
	}
	s.mechanic = mechanic.ID

	log.WithFields(log.Fields{
		"service_center_id": s.centerID,
		"mechanic_id":       s.mechanic,
	}).Info("Simulation accounts ready")
	return s, nil
}

// Visit runs one vehicle through the service center.
func (s *Simulator) Visit() (*Result, error) {
	brand := pick(s.rng, keys(makes))
	var vehicle entity
	err := s.customer.call(http.MethodPost, "/vehicles", map[string]interface{}{
		"make":          brand,
		"model":         pick(s.rng, makes[brand]),
		"year":          2015 + s.rng.Intn(10),
		"vin":           randomVIN(s.rng),
		"license_plate": fmt.Sprintf("SIM-%04d", s.rng.Intn(10000)),
		"mileage":       float64(10000 + s.rng.Intn(90000)),
	}, &vehicle)
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	var booking entity
	err = s.customer.call(http.MethodPost, "/bookings", map[string]interface{}{
		"vehicle_id":        vehicle.ID,
		"service_center_id": s.centerID,
		"service_type":      pick(s.rng, serviceTypes),
		"preferred_date":    time.Now().Add(24 * time.Hour),
	}, &booking)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	logger := log.WithField("booking_id", booking.ID)

	if err := s.center.call(http.MethodPost, "/servicecenter/bookings/"+booking.ID+"/approve", map[string]string{
		"assigned_mechanic": s.mechanic,
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to approve booking: %w", err)
	}

	var jobCard entity
	if err := s.center.call(http.MethodPost, "/jobcards", map[string]string{"booking_id": booking.ID}, &jobCard); err != nil {
		return nil, fmt.Errorf("failed to create job card: %w", err)
	}
	jobPath := "/jobcards/" + jobCard.ID
	if err := s.center.call(http.MethodPost, jobPath+"/start", nil, nil); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}

	task := laborTasks[s.rng.Intn(len(laborTasks))]
	if err := s.center.call(http.MethodPost, jobPath+"/labor-tasks", map[string]interface{}{
		"task":          task.Task,
		"hours":         task.Hours,
		"hourly_rate":   50,
		"technician_id": s.mechanic,
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to add labor task: %w", err)
	}
	part := parts[s.rng.Intn(len(parts))]
	if err := s.center.call(http.MethodPost, jobPath+"/add-part", map[string]interface{}{
		"part_name":  part.Name,
		"quantity":   1 + s.rng.Intn(3),
		"unit_price": part.Price,
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to add part: %w", err)
	}
	if err := s.center.call(http.MethodPost, jobPath+"/complete", nil, nil); err != nil {
		return nil, fmt.Errorf("failed to complete service: %w", err)
	}

	var invoice struct {
		entity
		TotalAmount float64 `json:"total_amount"`
	}
	if err := s.center.call(http.MethodPost, "/invoices", map[string]string{"job_card_id": jobCard.ID}, &invoice); err != nil {
		return nil, fmt.Errorf("failed to generate invoice: %w", err)
	}
	if err := s.customer.call(http.MethodPost, "/invoices/"+invoice.ID+"/process-payment", map[string]string{
		"payment_method": pick(s.rng, []string{"cash", "card", "upi", "bank_transfer"}),
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to pay invoice: %w", err)
	}

	rating := 3 + s.rng.Intn(3)
	if err := s.customer.call(http.MethodPost, "/reviews", map[string]interface{}{
		"booking_id": booking.ID,
		"rating":     rating,
		"comment":    "Simulated visit",
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to review booking: %w", err)
	}

	logger.WithFields(log.Fields{
		"invoice_id": invoice.ID,
		"total":      invoice.TotalAmount,
		"rating":     rating,
	}).Info("Completed visit")
	return &Result{BookingID: booking.ID, InvoiceID: invoice.ID, Total: invoice.TotalAmount, Rating: rating}, nil
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func keys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	visits := envInt("SIM_VISITS", 5)
	interval := time.Duration(envInt("SIM_TICK_SECONDS", 1)) * time.Second

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"visits":   visits,
		"interval": interval,
	}).Info("Starting service center simulation")

	sim, err := Setup(apiURL, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.WithError(err).Fatal("Failed to set up simulation")
	}

	completed := 0
	revenue := 0.0
	for i := 0; i < visits; i++ {
		result, err := sim.Visit()
		if err != nil {
			log.WithError(err).Error("Visit failed")
		} else {
			completed++
			revenue += result.Total
		}
		time.Sleep(interval)
	}
	log.WithFields(log.Fields{"completed": completed, "revenue": revenue}).Info("Simulation finished")
}
