package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"prediction-history-api/models"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"go.uber.org/zap"
)

const (
	codeTableAlreadyExists  = "TableAlreadyExists"
	codeEntityAlreadyExists = "EntityAlreadyExists"

	propInputData  = "InputData"
	propPrediction = "Prediction"
	propCreatedAt  = "CreatedAt"
)

// tableClient is the subset of *aztables.Client the adapter calls.
type tableClient interface {
	CreateTable(ctx context.Context, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
	AddEntity(ctx context.Context, entity []byte, options *aztables.AddEntityOptions) (aztables.AddEntityResponse, error)
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// TableStore persists records as entities in an Azure Storage table.
// PartitionKey is the record partition and RowKey the record id.
type TableStore struct {
	client tableClient
	table  string
	logger *zap.Logger
}

// NewTableStore connects to table using an Azure Storage connection string.
// No request is made until the first operation.
func NewTableStore(connectionString, table string, logger *zap.Logger) (*TableStore, error) {
	if connectionString == "" {
		return nil, ErrConfigurationMissing
	}

	svc, err := aztables.NewServiceClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create table service client: %w", err)
	}

	return newTableStore(svc.NewClient(table), table, logger), nil
}

func newTableStore(client tableClient, table string, logger *zap.Logger) *TableStore {
	return &TableStore{client: client, table: table, logger: logger}
}

func (s *TableStore) EnsureSchema(ctx context.Context) error {
	_, err := s.client.CreateTable(ctx, nil)
	if err == nil {
		s.logger.Info("Table created", zap.String("table", s.table))
		return nil
	}
	if hasErrorCode(err, codeTableAlreadyExists) {
		s.logger.Debug("Table already exists", zap.String("table", s.table))
		return nil
	}
	return transient("create table", err)
}

func (s *TableStore) Append(ctx context.Context, rec models.PredictionRecord) error {
	payload, err := marshalEntity(rec)
	if err != nil {
		return fmt.Errorf("failed to encode entity: %w", err)
	}

	if _, err := s.client.AddEntity(ctx, payload, nil); err != nil {
		if hasErrorCode(err, codeEntityAlreadyExists) {
			return duplicate(rec.Partition, rec.ID)
		}
		return transient("add entity", err)
	}
	return nil
}

func (s *TableStore) ListByPartition(ctx context.Context, partition string) iter.Seq2[models.PredictionRecord, error] {
	return func(yield func(models.PredictionRecord, error) bool) {
		filter := partitionFilter(partition)
		pager := s.client.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})

		for pager.More() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield(models.PredictionRecord{}, transient("list entities", err))
				return
			}
			for _, raw := range page.Entities {
				rec, err := unmarshalEntity(raw)
				if err != nil {
					s.logger.Error("Failed to decode entity", zap.Error(err))
					continue
				}
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

func partitionFilter(partition string) string {
	return fmt.Sprintf("PartitionKey eq '%s'", strings.ReplaceAll(partition, "'", "''"))
}

func marshalEntity(rec models.PredictionRecord) ([]byte, error) {
	props := map[string]any{
		propInputData:  rec.InputText,
		propPrediction: rec.PredictionText,
	}
	if !rec.CreatedAt.IsZero() {
		props[propCreatedAt] = aztables.EDMDateTime(rec.CreatedAt.UTC())
	}

	return json.Marshal(aztables.EDMEntity{
		Entity: aztables.Entity{
			PartitionKey: rec.Partition,
			RowKey:       rec.ID,
		},
		Properties: props,
	})
}

func unmarshalEntity(raw []byte) (models.PredictionRecord, error) {
	var ent aztables.EDMEntity
	if err := json.Unmarshal(raw, &ent); err != nil {
		return models.PredictionRecord{}, err
	}

	rec := models.PredictionRecord{
		Partition: ent.PartitionKey,
		ID:        ent.RowKey,
	}
	rec.InputText, _ = ent.Properties[propInputData].(string)
	rec.PredictionText, _ = ent.Properties[propPrediction].(string)

	// Entities written before CreatedAt existed carry only the service Timestamp.
	switch v := ent.Properties[propCreatedAt].(type) {
	case aztables.EDMDateTime:
		rec.CreatedAt = time.Time(v).UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.CreatedAt = t.UTC()
		}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Time(ent.Timestamp).UTC()
	}
	return rec, nil
}

func hasErrorCode(err error, code string) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == code
}
