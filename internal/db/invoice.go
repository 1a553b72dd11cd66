package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/service-center/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoInvoiceCollection implements InvoiceCollection for MongoDB.
type MongoInvoiceCollection struct {
	Collection *mongo.Collection
}

// InsertInvoice inserts an invoice. A second invoice for the same job card
// fails with ErrConflict.
func (c *MongoInvoiceCollection) InsertInvoice(ctx context.Context, invoice *models.Invoice) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if invoice.ID.IsZero() {
		invoice.ID = primitive.NewObjectID()
	}
	invoice.CreatedAt = time.Now()
	invoice.UpdatedAt = invoice.CreatedAt
	_, err := c.Collection.InsertOne(ctx, invoice)
	return translate("invoice", err)
}

// FindInvoiceByID finds an invoice by its ID.
func (c *MongoInvoiceCollection) FindInvoiceByID(ctx context.Context, id string) (*models.Invoice, error) {
	oid, err := objectID("invoice", id)
	if err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := c.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&invoice); err != nil {
		return nil, translate("invoice", err)
	}
	return &invoice, nil
}

// FindInvoiceByJobCard finds the invoice generated from a job card.
func (c *MongoInvoiceCollection) FindInvoiceByJobCard(ctx context.Context, jobCardID string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := c.Collection.FindOne(ctx, bson.M{"job_card_id": jobCardID}).Decode(&invoice); err != nil {
		return nil, translate("invoice", err)
	}
	return &invoice, nil
}

// FindInvoices lists invoices matching filter, newest first.
func (c *MongoInvoiceCollection) FindInvoices(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, error) {
	query := bson.M{}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}
	if filter.ServiceCenterID != "" {
		query["service_center_id"] = filter.ServiceCenterID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	cursor, err := c.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	invoices := []models.Invoice{}
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// TransitionInvoice moves an invoice between statuses in one conditional write.
func (c *MongoInvoiceCollection) TransitionInvoice(ctx context.Context, id string, from, to models.InvoiceStatus, patch InvoicePatch) (*models.Invoice, error) {
	oid, err := objectID("invoice", id)
	if err != nil {
		return nil, err
	}
	set := bson.M{"status": to, "updated_at": time.Now()}
	setIfPresent(set, "payment_method", patch.PaymentMethod)
	setIfPresent(set, "transaction_id", patch.TransactionID)
	setIfPresent(set, "paid_date", patch.PaidDate)
	setIfPresent(set, "failure_reason", patch.FailureReason)

	var invoice models.Invoice
	err = c.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": from},
		bson.M{"$set": set},
		findOneAndSet(),
	).Decode(&invoice)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, explainMiss(ctx, c.Collection, oid, "invoice")
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
