// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/dataset"
)

// MongoDBWriter inserts one document per row, fields in column order.
type MongoDBWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
	batchSize  int
	timeout    time.Duration
}

// NewMongoDBWriter connects to cfg.DSN and targets cfg.Database/cfg.Table.
func NewMongoDBWriter(ctx context.Context, cfg *config.DatabaseConfig) (*MongoDBWriter, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, fmt.Errorf("connection string is required for mongodb")
	}
	if cfg.Database == "" || cfg.Table == "" {
		return nil, fmt.Errorf("database and collection names are required for mongodb")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(connectCtx, options.Client().
		ApplyURI(cfg.DSN).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 500
	}
	return &MongoDBWriter{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Table),
		batchSize:  batch,
		timeout:    timeout,
	}, nil
}

func (w *MongoDBWriter) Write(ctx context.Context, table *dataset.Table) error {
	docs := Documents(table)
	for start := 0; start < len(docs); start += w.batchSize {
		end := min(start+w.batchSize, len(docs))
		opCtx, cancel := context.WithTimeout(ctx, w.timeout)
		_, err := w.collection.InsertMany(opCtx, docs[start:end], options.InsertMany().SetOrdered(true))
		cancel()
		if err != nil {
			return fmt.Errorf("failed to insert documents %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func (w *MongoDBWriter) Close() error {
	if w.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	err := w.client.Disconnect(ctx)
	w.client = nil
	return err
}

// Documents converts rows to ordered BSON documents. Missing cells are null.
func Documents(table *dataset.Table) []interface{} {
	fields := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		fields[i] = FieldName(c)
	}
	docs := make([]interface{}, 0, len(table.Rows))
	for _, row := range table.Rows {
		doc := make(bson.D, len(row))
		for j, cell := range row {
			doc[j] = bson.E{Key: fields[j], Value: cell.Value()}
		}
		docs = append(docs, doc)
	}
	return docs
}

// FieldName makes a column name safe as a document key: dots would be read
// as paths and a leading $ as an operator.
func FieldName(column string) string {
	name := strings.ReplaceAll(column, ".", "_")
	if strings.HasPrefix(name, "$") {
		name = "_" + name[1:]
	}
	if name == "" {
		name = "_"
	}
	return name
}
