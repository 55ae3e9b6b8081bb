package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medq/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.InitSchema())
	return client
}

func TestQueryRecordRoundTrip(t *testing.T) {
	client := newTestClient(t)

	record := &models.QueryRecord{
		ID:                 "q1",
		SessionID:          "s1",
		QueryText:          "what causes a persistent cough",
		Response:           "A persistent cough can indicate...",
		Confidence:         0.82,
		ConfidenceLevel:    "high",
		EmergencyLevel:     "none",
		UrgencyScore:       0.1,
		PrimaryEmotion:     "anxiety",
		EmotionalIntensity: 0.4,
		RetrievalCount:     5,
		LatencyMS:          120,
		CreatedAt:          time.Now(),
	}
	require.NoError(t, client.InsertQueryRecord(record))

	records, err := client.GetQueryHistory("s1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "q1", records[0].ID)
	assert.Equal(t, "high", records[0].ConfidenceLevel)
	assert.Equal(t, "none", records[0].EmergencyLevel)
	assert.Equal(t, "anxiety", records[0].PrimaryEmotion)
}

func TestGetQueryHistoryScopedToSession(t *testing.T) {
	client := newTestClient(t)

	for _, rec := range []*models.QueryRecord{
		{ID: "q1", SessionID: "s1", QueryText: "headache", CreatedAt: time.Now()},
		{ID: "q2", SessionID: "s2", QueryText: "fever", CreatedAt: time.Now()},
	} {
		require.NoError(t, client.InsertQueryRecord(rec))
	}

	records, err := client.GetQueryHistory("s1", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "q1", records[0].ID)
}

func TestDocumentUpsert(t *testing.T) {
	client := newTestClient(t)

	now := time.Now()
	doc := &models.Document{
		ID:         "d1",
		Source:     "medlineplus.gov/flu",
		Title:      "Influenza",
		Category:   "conditions",
		SourceType: "government",
		Summary:    "Seasonal flu overview",
		RawContent: "Influenza is a viral infection...",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, client.InsertDocument(doc))

	doc.Summary = "Updated flu overview"
	require.NoError(t, client.InsertDocument(doc))

	got, err := client.GetDocument("d1")
	require.NoError(t, err)
	assert.Equal(t, "Updated flu overview", got.Summary)
}

func TestListDocumentsFiltersByCategory(t *testing.T) {
	client := newTestClient(t)

	now := time.Now()
	for _, d := range []*models.Document{
		{ID: "d1", Source: "s1", Title: "Flu", Category: "conditions", CreatedAt: now, UpdatedAt: now},
		{ID: "d2", Source: "s2", Title: "Aspirin", Category: "medications", CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, client.InsertDocument(d))
	}

	docs, err := client.ListDocuments("conditions", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Flu", docs[0].Title)

	all, err := client.ListDocuments("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestKGEntityOccurrenceCountIncrements(t *testing.T) {
	client := newTestClient(t)

	now := time.Now()
	entity := &models.KGEntity{
		ID:              "e1",
		Name:            "fever",
		Category:        "symptoms",
		CanonicalName:   "fever",
		FirstSeen:       now,
		LastUpdated:     now,
		OccurrenceCount: 1,
	}
	require.NoError(t, client.InsertKGEntity(entity))
	require.NoError(t, client.InsertKGEntity(entity))

	entities, err := client.GetKGEntities("symptoms")
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "fever", entities[0].Name)
}

func TestFeedbackRequiresExistingQuery(t *testing.T) {
	client := newTestClient(t)

	err := client.StoreFeedback(&models.Feedback{QueryID: "missing", Helpful: true})
	assert.Error(t, err)
}
