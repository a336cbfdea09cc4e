package salesforce

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
)

// maxBatchSize is the Salesforce composite API limit per collection call.
const maxBatchSize = 200

// ContactUpdate pairs a Contact ID with the fields to set on it.
type ContactUpdate struct {
	ID     string
	Fields map[string]any
}

// BulkInsertTasks creates Task records in batches of maxBatchSize. On a batch
// failure the results of the batches that already succeeded are returned
// alongside the error.
func BulkInsertTasks(ctx context.Context, c Client, records []map[string]any) ([]CollectionResult, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var all []CollectionResult
	for start := 0; start < len(records); start += maxBatchSize {
		end := min(start+maxBatchSize, len(records))

		results, err := c.InsertCollection(ctx, "Task", records[start:end])
		if err != nil {
			return all, eris.Wrap(err, fmt.Sprintf("sf: bulk insert tasks batch %d-%d", start, end))
		}
		all = append(all, results...)
	}
	return all, nil
}

// BulkUpdateContacts applies field updates to Contacts in batches of
// maxBatchSize, with the same partial-result behavior as BulkInsertTasks.
func BulkUpdateContacts(ctx context.Context, c Client, updates []ContactUpdate) ([]CollectionResult, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	var all []CollectionResult
	for start := 0; start < len(updates); start += maxBatchSize {
		end := min(start+maxBatchSize, len(updates))

		batch := make([]CollectionRecord, 0, end-start)
		for _, u := range updates[start:end] {
			batch = append(batch, CollectionRecord(u))
		}

		results, err := c.UpdateCollection(ctx, "Contact", batch)
		if err != nil {
			return all, eris.Wrap(err, fmt.Sprintf("sf: bulk update contacts batch %d-%d", start, end))
		}
		all = append(all, results...)
	}
	return all, nil
}
