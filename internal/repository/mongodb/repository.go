package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/shopledger/internal/domain/models"
	"github.com/mamadbah2/shopledger/internal/repository"
)

const (
	stateCollection   = "state"
	reportsCollection = "daily_reports"
)

// ReportArchive defines the interface for daily report storage.
type ReportArchive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// MongoDBRepository stores ledger collections and archived daily reports.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

type stateDocument struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type summaryDocument struct {
	Revenue           primitive.Decimal128 `bson:"revenue"`
	COGS              primitive.Decimal128 `bson:"cogs"`
	GrossProfit       primitive.Decimal128 `bson:"gross_profit"`
	OperatingExpenses primitive.Decimal128 `bson:"operating_expenses"`
	NetProfit         primitive.Decimal128 `bson:"net_profit"`
	PurchasesTotal    primitive.Decimal128 `bson:"purchases_total"`
	TotalOutflows     primitive.Decimal128 `bson:"total_outflows"`
	TransactionCount  int                  `bson:"transaction_count"`
}

type dailyReportDocument struct {
	Date           time.Time            `bson:"date"`
	Summary        summaryDocument      `bson:"summary"`
	InventoryValue primitive.Decimal128 `bson:"inventory_value"`
	ItemCount      int                  `bson:"item_count"`
	CreatedAt      time.Time            `bson:"created_at"`
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

// Get returns the collection snapshot stored under key.
func (r *MongoDBRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var doc stateDocument
	err := r.collection(stateCollection).FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find state %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

// Put upserts the collection snapshot stored under key.
func (r *MongoDBRepository) Put(ctx context.Context, key string, value []byte) error {
	update := bson.M{"$set": bson.M{"value": string(value), "updated_at": time.Now().UTC()}}
	_, err := r.collection(stateCollection).UpdateOne(ctx, bson.M{"_id": key}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert state %s: %w", key, err)
	}
	return nil
}

// SaveDailyReport saves a daily report to the database.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	doc, err := toDailyReportDocument(report)
	if err != nil {
		return err
	}
	_, err = r.collection(reportsCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to insert daily report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func toDailyReportDocument(report models.DailyReport) (dailyReportDocument, error) {
	var firstErr error
	dec := func(d decimal.Decimal) primitive.Decimal128 {
		v, err := primitive.ParseDecimal128(d.StringFixed(2))
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("convert %s to decimal128: %w", d.StringFixed(2), err)
		}
		return v
	}

	s := report.Summary
	doc := dailyReportDocument{
		Date: report.Date,
		Summary: summaryDocument{
			Revenue:           dec(s.Revenue),
			COGS:              dec(s.COGS),
			GrossProfit:       dec(s.GrossProfit),
			OperatingExpenses: dec(s.OperatingExpenses),
			NetProfit:         dec(s.NetProfit),
			PurchasesTotal:    dec(s.PurchasesTotal),
			TotalOutflows:     dec(s.TotalOutflows),
			TransactionCount:  s.TransactionCount,
		},
		InventoryValue: dec(report.InventoryValue),
		ItemCount:      report.ItemCount,
		CreatedAt:      report.CreatedAt,
	}
	return doc, firstErr
}

var (
	_ repository.KeyValueStore = (*MongoDBRepository)(nil)
	_ ReportArchive            = (*MongoDBRepository)(nil)
)
