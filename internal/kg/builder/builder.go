package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medq/backend/internal/entities"
	"github.com/medq/backend/internal/kg/neo4j"
	"github.com/medq/backend/internal/metrics"
	"github.com/medq/backend/internal/storage/models"
	"github.com/medq/backend/internal/storage/sqlite"
	"github.com/medq/backend/pkg/logger"
)

type Builder struct {
	db        *sqlite.Client
	kgClient  *neo4j.Client
	extractor *entities.Extractor
}

func NewBuilder(db *sqlite.Client, kgClient *neo4j.Client, extractor *entities.Extractor) *Builder {
	return &Builder{
		db:        db,
		kgClient:  kgClient,
		extractor: extractor,
	}
}

// BuildFromDocument extracts medical entities from a document and
// records them plus their co-occurrence relations in the graph.
func (b *Builder) BuildFromDocument(ctx context.Context, doc *models.Document) error {
	logger.Info("Building KG from document", zap.String("doc_id", doc.ID))

	extracted, err := b.extractor.Extract(doc.RawContent)
	if err != nil {
		return fmt.Errorf("failed to extract entities: %w", err)
	}

	type categorized struct {
		id       string
		name     string
		category string
	}
	var found []categorized

	for category, terms := range extracted {
		for _, term := range terms {
			entityID := entityIDFor(term)
			entity := &models.KGEntity{
				ID:              entityID,
				Name:            term,
				Category:        category,
				CanonicalName:   term,
				Aliases:         []string{},
				FirstSeen:       time.Now(),
				LastUpdated:     time.Now(),
				OccurrenceCount: 1,
			}

			if err := b.db.InsertKGEntity(entity); err != nil {
				logger.Error("Failed to insert entity to SQLite", zap.Error(err))
				continue
			}

			kgEntity := &neo4j.Entity{
				ID:            entityID,
				Name:          term,
				Category:      category,
				CanonicalName: term,
			}
			if err := b.kgClient.CreateEntity(ctx, kgEntity); err != nil {
				logger.Error("Failed to create entity in Neo4j", zap.Error(err))
				continue
			}

			found = append(found, categorized{id: entityID, name: term, category: category})
		}
	}

	relationCount := 0
	for i, subject := range found {
		for _, object := range found[i+1:] {
			predicate := predicateFor(subject.category, object.category)
			if predicate == "" {
				continue
			}

			relation := &neo4j.Relation{
				Subject:    subject.id,
				Predicate:  predicate,
				Object:     object.id,
				Confidence: 0.7,
				SourceDocs: []string{doc.Source},
			}

			if err := b.kgClient.CreateRelation(ctx, relation); err != nil {
				logger.Error("Failed to create relation in Neo4j", zap.Error(err))
				continue
			}

			dbRelation := &models.KGRelation{
				SubjectID:   subject.id,
				Predicate:   predicate,
				ObjectID:    object.id,
				Confidence:  0.7,
				SourceDocID: doc.ID,
				CreatedAt:   time.Now(),
			}
			b.db.InsertKGRelation(dbRelation)
			relationCount++
		}
	}

	metrics.KGEntitiesTotal.Add(float64(len(found)))
	metrics.KGRelationsTotal.Add(float64(relationCount))

	logger.Info("KG built from document",
		zap.String("doc_id", doc.ID),
		zap.Int("entities", len(found)),
		zap.Int("relations", relationCount),
	)

	return nil
}

// predicateFor maps a pair of entity categories to the relation drawn
// between co-occurring entities. Unmapped pairs produce no relation.
func predicateFor(subjectCategory, objectCategory string) string {
	switch {
	case subjectCategory == "symptoms" && objectCategory == "conditions":
		return "INDICATES"
	case subjectCategory == "conditions" && objectCategory == "symptoms":
		return "INDICATES"
	case subjectCategory == "conditions" && objectCategory == "medications":
		return "TREATED_BY"
	case subjectCategory == "medications" && objectCategory == "conditions":
		return "TREATED_BY"
	case subjectCategory == "symptoms" && objectCategory == "body_parts":
		return "AFFECTS"
	case subjectCategory == "body_parts" && objectCategory == "symptoms":
		return "AFFECTS"
	case subjectCategory == "conditions" && objectCategory == "procedures":
		return "DIAGNOSED_BY"
	case subjectCategory == "procedures" && objectCategory == "conditions":
		return "DIAGNOSED_BY"
	case subjectCategory == objectCategory:
		return "CO_OCCURS_WITH"
	default:
		return ""
	}
}

// entityIDFor derives a stable ID from the entity name so repeated
// ingestions merge into the same graph node.
func entityIDFor(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (b *Builder) InitializeSeedConcepts() error {
	seeds := []models.SeedConcept{
		{ID: uuid.New().String(), Name: "fever", Category: "symptoms", Description: "Elevated body temperature", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "chest pain", Category: "symptoms", Description: "Pain in the chest area", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "headache", Category: "symptoms", Description: "Pain in the head", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "influenza", Category: "conditions", Description: "Seasonal flu viral infection", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "diabetes", Category: "conditions", Description: "Chronic blood sugar disorder", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "hypertension", Category: "conditions", Description: "High blood pressure", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "asthma", Category: "conditions", Description: "Chronic airway inflammation", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "aspirin", Category: "medications", Description: "Common pain reliever and blood thinner", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "ibuprofen", Category: "medications", Description: "Nonsteroidal anti-inflammatory drug", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "insulin", Category: "medications", Description: "Blood sugar regulating hormone", CreatedAt: time.Now()},
		{ID: uuid.New().String(), Name: "heart", Category: "body_parts", Description: "Cardiac muscle organ", CreatedAt: time.Now()},
	}

	for _, seed := range seeds {
		err := b.db.InsertSeedConcept(&seed)
		if err != nil {
			logger.Error("Failed to insert seed concept", zap.Error(err))
		}
	}

	logger.Info("Seed concepts initialized", zap.Int("count", len(seeds)))
	return nil
}
