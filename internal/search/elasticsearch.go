package search

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"

	"example.com/fieldwork/services/workorders/config"
	"example.com/fieldwork/services/workorders/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient maintains the work-order search projection. The SQL
// store stays the source of truth; indexing is best effort.
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{
		client: client,
		config: cfg,
	}, nil
}

// IndexWorkOrder writes or refreshes one work order document. The
// surrogate id doubles as the document id so reindexing is idempotent.
func (c *ElasticClient) IndexWorkOrder(ctx context.Context, row *models.WorkOrderRow) error {
	doc := map[string]interface{}{
		"work_order_id":       row.ID,
		"work_order_number":   row.Number,
		"current_status":      row.CurrentStatus,
		"description":         row.Description,
		"address_line":        row.AddressLine,
		"city":                row.City,
		"state":               row.State,
		"zip_code":            row.ZipCode,
		"store_id":            row.StoreID,
		"store_name":          row.StoreName,
		"client_id":           row.ClientID,
		"client_name":         row.ClientName,
		"assigned_dispatcher": row.AssignedDispatcher,
		"dispatcher_name":     row.DispatcherName,
		"nte":                 row.NTE,
		"eta_date":            row.ETADate,
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal work order document")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: strconv.FormatUint(uint64(row.ID), 10),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Debug().
		Uint("work_order_id", row.ID).
		Str("work_order_number", row.Number).
		Msg("Work order indexed")
	return nil
}

// SearchWorkOrders runs a free-text query across the indexed display
// fields and returns the matching documents.
func (c *ElasticClient) SearchWorkOrders(ctx context.Context, query string, size int) ([]map[string]interface{}, error) {
	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"work_order_number", "description", "address_line", "store_name", "client_name"},
			},
		},
		"sort": []map[string]interface{}{
			{"work_order_id": map[string]interface{}{"order": "desc"}},
		},
	}

	queryJSON, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	indexName := config.FormatIndex(c.config, c.config.Index)
	req := esapi.SearchRequest{
		Index: []string{indexName},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}

	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}

		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}

		docs = append(docs, source)
	}

	return docs, nil
}
