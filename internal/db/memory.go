package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore keeps every collection in process memory. It backs the
// "memory" store driver and the workflow tests. Transactions are serialized
// and roll back by restoring a snapshot. Writes from outside a transaction
// wait for it to finish so a rollback never discards them.
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.RWMutex

	users         map[string]models.User
	vehicles      map[string]models.Vehicle
	bookings      map[string]models.Booking
	jobCards      map[string]models.JobCard
	invoices      map[string]models.Invoice
	inventory     map[string]models.Inventory
	stockRequests map[string]models.StockRequest
	teamMembers   map[string]models.TeamMember
	performance   map[string]models.MechanicPerformance
	reviews       map[string]models.Review
	sequences     map[string]int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         map[string]models.User{},
		vehicles:      map[string]models.Vehicle{},
		bookings:      map[string]models.Booking{},
		jobCards:      map[string]models.JobCard{},
		invoices:      map[string]models.Invoice{},
		inventory:     map[string]models.Inventory{},
		stockRequests: map[string]models.StockRequest{},
		teamMembers:   map[string]models.TeamMember{},
		performance:   map[string]models.MechanicPerformance{},
		reviews:       map[string]models.Review{},
		sequences:     map[string]int64{},
	}
}

// Store exposes m through the Store bundle.
func (m *MemoryStore) Store() *Store {
	return &Store{
		Users:         m,
		Vehicles:      m,
		Bookings:      m,
		JobCards:      m,
		Invoices:      m,
		Inventory:     m,
		StockRequests: m,
		TeamMembers:   m,
		Performance:   m,
		Reviews:       m,
		Sequences:     m,
		Tx:            m,
	}
}

type memorySnapshot struct {
	users         map[string]models.User
	vehicles      map[string]models.Vehicle
	bookings      map[string]models.Booking
	jobCards      map[string]models.JobCard
	invoices      map[string]models.Invoice
	inventory     map[string]models.Inventory
	stockRequests map[string]models.StockRequest
	teamMembers   map[string]models.TeamMember
	performance   map[string]models.MechanicPerformance
	reviews       map[string]models.Review
}

func copyMap[V any](src map[string]V) map[string]V {
	dst := make(map[string]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

type memoryTxKey struct{}

// inTx reports whether ctx belongs to a transaction running on m.
func (m *MemoryStore) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(memoryTxKey{}).(*MemoryStore)
	return owner == m
}

// guard holds off a write while another caller's transaction is open.
// Writes made with the transaction's own context pass straight through.
func (m *MemoryStore) guard(ctx context.Context) func() {
	if m.inTx(ctx) {
		return func() {}
	}
	m.txMu.RLock()
	return m.txMu.RUnlock
}

// WithTransaction runs fn and restores the previous state if it fails.
// Sequences are not rolled back, matching a counters collection. A nested
// call joins the enclosing transaction.
func (m *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.inTx(ctx) {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	ctx = context.WithValue(ctx, memoryTxKey{}, m)

	m.mu.Lock()
	snap := memorySnapshot{
		users:         copyMap(m.users),
		vehicles:      copyMap(m.vehicles),
		bookings:      copyMap(m.bookings),
		jobCards:      copyMap(m.jobCards),
		invoices:      copyMap(m.invoices),
		inventory:     copyMap(m.inventory),
		stockRequests: copyMap(m.stockRequests),
		teamMembers:   copyMap(m.teamMembers),
		performance:   copyMap(m.performance),
		reviews:       copyMap(m.reviews),
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.users = snap.users
		m.vehicles = snap.vehicles
		m.bookings = snap.bookings
		m.jobCards = snap.jobCards
		m.invoices = snap.invoices
		m.inventory = snap.inventory
		m.stockRequests = snap.stockRequests
		m.teamMembers = snap.teamMembers
		m.performance = snap.performance
		m.reviews = snap.reviews
		m.mu.Unlock()
		return err
	}
	return nil
}

func notFound(kind string) error {
	return fmt.Errorf("%s %w", kind, ErrNotFound)
}

func conflict(kind string) error {
	return fmt.Errorf("%s already exists: %w", kind, ErrConflict)
}

func newID(id *primitive.ObjectID) string {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	return id.Hex()
}

func sortNewest[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
}

// --- users ---

func (m *MemoryStore) InsertUser(ctx context.Context, user models.User) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return conflict("user")
		}
	}
	id := newID(&user.ID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	user.IsActive = true
	m.users[id] = user
	return nil
}

func (m *MemoryStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user")
	}
	return &u, nil
}

func (m *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, notFound("user")
}

func (m *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Username == username })
}

func (m *MemoryStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.Email == email })
}

func (m *MemoryStore) FindUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sortNewest(out, func(u models.User) time.Time { return u.CreatedAt })
	return out, nil
}

func (m *MemoryStore) UpdateUser(ctx context.Context, id string, user models.User) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return notFound("user")
	}
	oid, err := objectID("user", id)
	if err != nil {
		return err
	}
	user.ID = oid
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return nil
}

func (m *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemoryStore) UpdateLastLogin(ctx context.Context, id string) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return notFound("user")
	}
	now := time.Now()
	u.LastLogin = &now
	u.UpdatedAt = now
	m.users[id] = u
	return nil
}

// --- vehicles ---

func (m *MemoryStore) InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vehicles {
		if vehicle.VIN != "" && v.VIN == vehicle.VIN {
			return conflict("vehicle")
		}
	}
	id := newID(&vehicle.ID)
	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = vehicle.CreatedAt
	m.vehicles[id] = *vehicle
	return nil
}

func (m *MemoryStore) FindVehicles(ctx context.Context, ownerID string) ([]models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Vehicle{}
	for _, v := range m.vehicles {
		if ownerID == "" || v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	sortNewest(out, func(v models.Vehicle) time.Time { return v.CreatedAt })
	return out, nil
}

func (m *MemoryStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return nil, notFound("vehicle")
	}
	return &v, nil
}

func (m *MemoryStore) UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.vehicles[id]
	if !ok {
		return notFound("vehicle")
	}
	vehicle.ID = existing.ID
	vehicle.CreatedAt = existing.CreatedAt
	vehicle.UpdatedAt = time.Now()
	m.vehicles[id] = vehicle
	return nil
}

func (m *MemoryStore) DeleteVehicle(ctx context.Context, id string) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vehicles[id]; !ok {
		return notFound("vehicle")
	}
	delete(m.vehicles, id)
	return nil
}

// --- bookings ---

func (m *MemoryStore) InsertBooking(ctx context.Context, booking *models.Booking) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newID(&booking.ID)
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	m.bookings[id] = *booking
	return nil
}

func (m *MemoryStore) FindBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	return &b, nil
}

func (m *MemoryStore) FindBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Booking{}
	for _, b := range m.bookings {
		if filter.CustomerID != "" && b.CustomerID != filter.CustomerID {
			continue
		}
		if filter.ServiceCenterID != "" && b.ServiceCenterID != filter.ServiceCenterID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, b)
	}
	sortNewest(out, func(b models.Booking) time.Time { return b.CreatedAt })
	return out, nil
}

func applyBookingPatch(b *models.Booking, patch BookingPatch) {
	if patch.ScheduledDate != nil {
		d := *patch.ScheduledDate
		b.ScheduledDate = &d
	}
	if patch.AssignedMechanic != nil {
		b.AssignedMechanic = *patch.AssignedMechanic
	}
	if patch.JobCardID != nil {
		b.JobCardID = *patch.JobCardID
	}
	if patch.EstimatedCost != nil {
		b.EstimatedCost = *patch.EstimatedCost
	}
	if patch.ActualCost != nil {
		b.ActualCost = *patch.ActualCost
	}
	if patch.CancelReason != nil {
		b.CancelReason = *patch.CancelReason
	}
	b.UpdatedAt = time.Now()
}

func (m *MemoryStore) TransitionBooking(ctx context.Context, id string, from, to models.BookingStatus, patch BookingPatch) (*models.Booking, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	if b.Status != from {
		return nil, fmt.Errorf("booking: %w", ErrStatusMismatch)
	}
	b.Status = to
	applyBookingPatch(&b, patch)
	m.bookings[id] = b
	return &b, nil
}

func (m *MemoryStore) UpdateBooking(ctx context.Context, id string, patch BookingPatch) (*models.Booking, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, notFound("booking")
	}
	applyBookingPatch(&b, patch)
	m.bookings[id] = b
	return &b, nil
}

// --- job cards ---

func (m *MemoryStore) InsertJobCard(ctx context.Context, jobCard *models.JobCard) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, jc := range m.jobCards {
		if jc.BookingID == jobCard.BookingID || jc.JobCardNumber == jobCard.JobCardNumber {
			return conflict("job card")
		}
	}
	id := newID(&jobCard.ID)
	jobCard.Version = 1
	jobCard.CreatedAt = time.Now()
	jobCard.UpdatedAt = jobCard.CreatedAt
	m.jobCards[id] = jobCard.Clone()
	return nil
}

func (m *MemoryStore) FindJobCardByID(ctx context.Context, id string) (*models.JobCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	jc, ok := m.jobCards[id]
	if !ok {
		return nil, notFound("job card")
	}
	out := jc.Clone()
	return &out, nil
}

func (m *MemoryStore) FindJobCardByBooking(ctx context.Context, bookingID string) (*models.JobCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, jc := range m.jobCards {
		if jc.BookingID == bookingID {
			out := jc.Clone()
			return &out, nil
		}
	}
	return nil, notFound("job card")
}

func (m *MemoryStore) FindJobCards(ctx context.Context, filter JobCardFilter) ([]models.JobCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.JobCard{}
	for _, jc := range m.jobCards {
		if filter.ServiceCenterID != "" && jc.ServiceCenterID != filter.ServiceCenterID {
			continue
		}
		if filter.CustomerID != "" && jc.CustomerID != filter.CustomerID {
			continue
		}
		if filter.MechanicID != "" && jc.AssignedMechanic != filter.MechanicID {
			continue
		}
		if filter.Status != "" && jc.Status != filter.Status {
			continue
		}
		out = append(out, jc.Clone())
	}
	sortNewest(out, func(jc models.JobCard) time.Time { return jc.CreatedAt })
	return out, nil
}

func (m *MemoryStore) ReplaceJobCard(ctx context.Context, jobCard *models.JobCard) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	id := jobCard.ID.Hex()
	stored, ok := m.jobCards[id]
	if !ok {
		return notFound("job card")
	}
	if stored.Version != jobCard.Version {
		return fmt.Errorf("job card %s: %w", id, ErrVersionConflict)
	}
	jobCard.Version++
	jobCard.UpdatedAt = time.Now()
	m.jobCards[id] = jobCard.Clone()
	return nil
}

// --- invoices ---

func (m *MemoryStore) InsertInvoice(ctx context.Context, invoice *models.Invoice) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.JobCardID == invoice.JobCardID || inv.InvoiceNumber == invoice.InvoiceNumber {
			return conflict("invoice")
		}
	}
	id := newID(&invoice.ID)
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = invoice.CreatedAt
	m.invoices[id] = *invoice
	return nil
}

func (m *MemoryStore) FindInvoiceByID(ctx context.Context, id string) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, notFound("invoice")
	}
	return &inv, nil
}

func (m *MemoryStore) FindInvoiceByJobCard(ctx context.Context, jobCardID string) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.JobCardID == jobCardID {
			inv := inv
			return &inv, nil
		}
	}
	return nil, notFound("invoice")
}

func (m *MemoryStore) FindInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Invoice{}
	for _, inv := range m.invoices {
		if filter.CustomerID != "" && inv.CustomerID != filter.CustomerID {
			continue
		}
		if filter.ServiceCenterID != "" && inv.ServiceCenterID != filter.ServiceCenterID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		out = append(out, inv)
	}
	sortNewest(out, func(inv models.Invoice) time.Time { return inv.CreatedAt })
	return out, nil
}

func (m *MemoryStore) TransitionInvoice(ctx context.Context, id string, from, to models.InvoiceStatus, patch InvoicePatch) (*models.Invoice, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, notFound("invoice")
	}
	if inv.Status != from {
		return nil, fmt.Errorf("invoice: %w", ErrStatusMismatch)
	}
	inv.Status = to
	if patch.PaymentMethod != nil {
		inv.PaymentMethod = *patch.PaymentMethod
	}
	if patch.TransactionID != nil {
		inv.TransactionID = *patch.TransactionID
	}
	if patch.PaidDate != nil {
		d := *patch.PaidDate
		inv.PaidDate = &d
	}
	if patch.FailureReason != nil {
		inv.FailureReason = *patch.FailureReason
	}
	inv.UpdatedAt = time.Now()
	m.invoices[id] = inv
	return &inv, nil
}

// --- inventory ---

func (m *MemoryStore) InsertInventory(ctx context.Context, item *models.Inventory) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.inventory {
		if it.SKU == item.SKU && it.ServiceCenterID == item.ServiceCenterID {
			return conflict("inventory item")
		}
	}
	id := newID(&item.ID)
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.inventory[id] = *item
	return nil
}

func (m *MemoryStore) FindInventoryByID(ctx context.Context, id string) (*models.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.inventory[id]
	if !ok {
		return nil, notFound("inventory item")
	}
	return &it, nil
}

func (m *MemoryStore) FindInventory(ctx context.Context, filter InventoryFilter) ([]models.Inventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Inventory{}
	for _, it := range m.inventory {
		if filter.ServiceCenterID != "" && it.ServiceCenterID != filter.ServiceCenterID {
			continue
		}
		if filter.LowStockOnly && !it.IsLowStock() {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PartName < out[j].PartName })
	return out, nil
}

func (m *MemoryStore) DecrementStock(ctx context.Context, id string, qty int) (*models.Inventory, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.inventory[id]
	if !ok {
		return nil, notFound("inventory item")
	}
	if it.CurrentStock < qty {
		return nil, fmt.Errorf("inventory item %s: %w", id, ErrInsufficientStock)
	}
	it.CurrentStock -= qty
	it.UpdatedAt = time.Now()
	m.inventory[id] = it
	return &it, nil
}

func (m *MemoryStore) IncrementStock(ctx context.Context, id string, qty int) (*models.Inventory, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.inventory[id]
	if !ok {
		return nil, notFound("inventory item")
	}
	it.CurrentStock += qty
	it.UpdatedAt = time.Now()
	m.inventory[id] = it
	return &it, nil
}

// --- stock requests ---

func (m *MemoryStore) InsertStockRequest(ctx context.Context, request *models.StockRequest) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newID(&request.ID)
	request.CreatedAt = time.Now()
	request.UpdatedAt = request.CreatedAt
	m.stockRequests[id] = *request
	return nil
}

func (m *MemoryStore) FindStockRequestByID(ctx context.Context, id string) (*models.StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.stockRequests[id]
	if !ok {
		return nil, notFound("stock request")
	}
	return &r, nil
}

func (m *MemoryStore) FindStockRequests(ctx context.Context, filter StockRequestFilter) ([]models.StockRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.StockRequest{}
	for _, r := range m.stockRequests {
		if filter.RequestedBy != "" && r.RequestedBy != filter.RequestedBy {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	sortNewest(out, func(r models.StockRequest) time.Time { return r.CreatedAt })
	return out, nil
}

func (m *MemoryStore) TransitionStockRequest(ctx context.Context, id string, from, to models.StockRequestStatus, patch StockRequestPatch) (*models.StockRequest, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.stockRequests[id]
	if !ok {
		return nil, notFound("stock request")
	}
	if r.Status != from {
		return nil, fmt.Errorf("stock request: %w", ErrStatusMismatch)
	}
	r.Status = to
	if patch.AdminNotes != nil {
		r.AdminNotes = *patch.AdminNotes
	}
	if patch.ReviewedBy != nil {
		r.ReviewedBy = *patch.ReviewedBy
	}
	if patch.FulfilledAt != nil {
		d := *patch.FulfilledAt
		r.FulfilledAt = &d
	}
	r.UpdatedAt = time.Now()
	m.stockRequests[id] = r
	return &r, nil
}

// --- team members ---

func (m *MemoryStore) InsertTeamMember(ctx context.Context, member *models.TeamMember) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	id := newID(&member.ID)
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	m.teamMembers[id] = *member
	return nil
}

func (m *MemoryStore) FindTeamMemberByID(ctx context.Context, id string) (*models.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.teamMembers[id]
	if !ok {
		return nil, notFound("team member")
	}
	return &tm, nil
}

func (m *MemoryStore) FindTeamMembers(ctx context.Context, filter TeamMemberFilter) ([]models.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.TeamMember{}
	for _, tm := range m.teamMembers {
		if filter.ServiceCenterID != "" && tm.ServiceCenterID != filter.ServiceCenterID {
			continue
		}
		if filter.Role != "" && tm.Role != filter.Role {
			continue
		}
		out = append(out, tm)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) UpdateTeamMemberStatus(ctx context.Context, id string, status models.TeamMemberStatus) (*models.TeamMember, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	tm, ok := m.teamMembers[id]
	if !ok {
		return nil, notFound("team member")
	}
	tm.Status = status
	tm.UpdatedAt = time.Now()
	m.teamMembers[id] = tm
	return &tm, nil
}

// --- mechanic performance ---

func perfKey(mechanicID, serviceCenterID string) string {
	return mechanicID + "/" + serviceCenterID
}

// upsertPerformance must be called with m.mu held.
func (m *MemoryStore) upsertPerformance(mechanicID, serviceCenterID string) models.MechanicPerformance {
	key := perfKey(mechanicID, serviceCenterID)
	p, ok := m.performance[key]
	if !ok {
		p = models.MechanicPerformance{
			ID:              primitive.NewObjectID(),
			MechanicID:      mechanicID,
			ServiceCenterID: serviceCenterID,
			LastUpdated:     time.Now(),
		}
	}
	return p
}

func (m *MemoryStore) EnsurePerformance(ctx context.Context, mechanicID, serviceCenterID string) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.performance[perfKey(mechanicID, serviceCenterID)] = m.upsertPerformance(mechanicID, serviceCenterID)
	return nil
}

func (m *MemoryStore) IncrementCompletion(ctx context.Context, mechanicID, serviceCenterID string, delta models.CompletionDelta) (*models.MechanicPerformance, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.upsertPerformance(mechanicID, serviceCenterID)
	p.ApplyCompletion(delta, time.Now())
	m.performance[perfKey(mechanicID, serviceCenterID)] = p
	return &p, nil
}

func (m *MemoryStore) IncrementRating(ctx context.Context, mechanicID, serviceCenterID string, rating int) (*models.MechanicPerformance, error) {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.upsertPerformance(mechanicID, serviceCenterID)
	p.ApplyRating(rating, time.Now())
	m.performance[perfKey(mechanicID, serviceCenterID)] = p
	return &p, nil
}

func (m *MemoryStore) FindPerformance(ctx context.Context, mechanicID, serviceCenterID string) (*models.MechanicPerformance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.performance[perfKey(mechanicID, serviceCenterID)]
	if !ok {
		return nil, notFound("mechanic performance")
	}
	return &p, nil
}

func (m *MemoryStore) FindPerformances(ctx context.Context, serviceCenterID string) ([]models.MechanicPerformance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MechanicPerformance{}
	for _, p := range m.performance {
		if serviceCenterID == "" || p.ServiceCenterID == serviceCenterID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AvgRating > out[j].AvgRating })
	return out, nil
}

// --- reviews ---

func (m *MemoryStore) InsertReview(ctx context.Context, review *models.Review) error {
	defer m.guard(ctx)()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.BookingID == review.BookingID {
			return conflict("review")
		}
	}
	id := newID(&review.ID)
	review.CreatedAt = time.Now()
	m.reviews[id] = *review
	return nil
}

func (m *MemoryStore) FindReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Review{}
	for _, r := range m.reviews {
		if filter.ServiceCenterID != "" && r.ServiceCenterID != filter.ServiceCenterID {
			continue
		}
		if filter.MechanicID != "" && r.MechanicID != filter.MechanicID {
			continue
		}
		if filter.CustomerID != "" && r.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, r)
	}
	sortNewest(out, func(r models.Review) time.Time { return r.CreatedAt })
	return out, nil
}

// --- sequences ---

func (m *MemoryStore) NextSequence(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[key]++
	return m.sequences[key], nil
}
