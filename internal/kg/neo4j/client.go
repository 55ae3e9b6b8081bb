package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/medq/backend/pkg/circuitbreaker"
	"github.com/medq/backend/pkg/logger"
	"github.com/medq/backend/pkg/retry"
)

type Client struct {
	driver      neo4j.DriverWithContext
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

type Entity struct {
	ID            string
	Name          string
	Category      string
	CanonicalName string
	Properties    map[string]interface{}
}

type Relation struct {
	Subject    string
	Predicate  string
	Object     string
	Confidence float64
	SourceDocs []string
}

type Triple struct {
	Subject    Entity
	Predicate  string
	Object     Entity
	Confidence float64
	SourceURLs []string
}

func NewClient(uri, username, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		uri,
		neo4j.BasicAuth(username, password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	ctx := context.Background()
	err = driver.VerifyConnectivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify connectivity: %w", err)
	}

	cb := circuitbreaker.NewGraphBreaker("neo4j", logger.GetLogger())
	retryConfig := retry.GraphConfig(logger.GetLogger())

	logger.Info("Neo4j client initialized", zap.String("uri", uri))

	return &Client{
		driver:      driver,
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func (c *Client) executeWithRetry(ctx context.Context, operation func(neo4j.SessionWithContext) error) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
			defer session.Close(ctx)
			return operation(session)
		})
	})
}

func (c *Client) CreateEntity(ctx context.Context, entity *Entity) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
	defer session.Close(ctx)

	query := `
		MERGE (e:MedicalEntity {id: $id})
		SET e.name = $name,
		    e.category = $category,
		    e.canonical_name = $canonical_name,
		    e.created_at = timestamp()
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"id":             entity.ID,
		"name":           entity.Name,
		"category":       entity.Category,
		"canonical_name": entity.CanonicalName,
	})

	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}

	logger.Debug("Entity created in KG", zap.String("entity_id", entity.ID), zap.String("name", entity.Name))

	return nil
}

func (c *Client) CreateRelation(ctx context.Context, relation *Relation) error {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
	defer session.Close(ctx)

	query := `
		MATCH (s:MedicalEntity {id: $subject_id})
		MATCH (o:MedicalEntity {id: $object_id})
		MERGE (s)-[r:RELATES {type: $predicate}]->(o)
		SET r.confidence = $confidence,
		    r.source_docs = $source_docs,
		    r.created_at = timestamp()
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"subject_id":  relation.Subject,
		"object_id":   relation.Object,
		"predicate":   relation.Predicate,
		"confidence":  relation.Confidence,
		"source_docs": relation.SourceDocs,
	})

	if err != nil {
		return fmt.Errorf("failed to create relation: %w", err)
	}

	logger.Debug("Relation created in KG",
		zap.String("subject", relation.Subject),
		zap.String("predicate", relation.Predicate),
		zap.String("object", relation.Object),
	)

	return nil
}

func (c *Client) SearchByEntities(ctx context.Context, entities []string, minConfidence float64) ([]Triple, error) {
	var triples []Triple

	err := c.executeWithRetry(ctx, func(session neo4j.SessionWithContext) error {
		query := `
			MATCH (s:MedicalEntity)-[r:RELATES]->(o:MedicalEntity)
			WHERE (s.name IN $entities OR o.name IN $entities)
			  AND r.confidence >= $min_confidence
			RETURN s.id, s.name, s.category, s.canonical_name,
			       r.type, r.confidence, r.source_docs,
			       o.id, o.name, o.category, o.canonical_name
			ORDER BY r.confidence DESC
			LIMIT 20
		`

		result, err := session.Run(ctx, query, map[string]interface{}{
			"entities":       entities,
			"min_confidence": minConfidence,
		})
		if err != nil {
			return fmt.Errorf("failed to search by entities: %w", err)
		}

		for result.Next(ctx) {
			record := result.Record()

			subjectID, _ := record.Get("s.id")
			subjectName, _ := record.Get("s.name")
			subjectCategory, _ := record.Get("s.category")
			subjectCanonical, _ := record.Get("s.canonical_name")

			objectID, _ := record.Get("o.id")
			objectName, _ := record.Get("o.name")
			objectCategory, _ := record.Get("o.category")
			objectCanonical, _ := record.Get("o.canonical_name")

			predicate, _ := record.Get("r.type")
			confidence, _ := record.Get("r.confidence")
			sourceDocs, _ := record.Get("r.source_docs")

			var sourceURLs []string
			if docs, ok := sourceDocs.([]interface{}); ok {
				for _, doc := range docs {
					if url, ok := doc.(string); ok {
						sourceURLs = append(sourceURLs, url)
					}
				}
			}

			triple := Triple{
				Subject: Entity{
					ID:            subjectID.(string),
					Name:          subjectName.(string),
					Category:      subjectCategory.(string),
					CanonicalName: subjectCanonical.(string),
				},
				Predicate: predicate.(string),
				Object: Entity{
					ID:            objectID.(string),
					Name:          objectName.(string),
					Category:      objectCategory.(string),
					CanonicalName: objectCanonical.(string),
				},
				Confidence: confidence.(float64),
				SourceURLs: sourceURLs,
			}

			triples = append(triples, triple)
		}

		if err = result.Err(); err != nil {
			return fmt.Errorf("error iterating results: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	logger.Info("KG search completed",
		zap.Int("num_entities", len(entities)),
		zap.Int("results_found", len(triples)),
	)

	return triples, nil
}

// FindRelatedConditions walks symptom nodes to the conditions they
// indicate, two hops out at most.
func (c *Client) FindRelatedConditions(ctx context.Context, symptom string, minConfidence float64) ([]Triple, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
	defer session.Close(ctx)

	query := `
		MATCH (s:MedicalEntity {category: 'symptoms'})-[r:RELATES]->(cond:MedicalEntity {category: 'conditions'})
		WHERE s.name CONTAINS $symptom
		  AND r.confidence >= $min_confidence
		RETURN s.id, s.name, s.category, s.canonical_name,
		       r.type, r.confidence, r.source_docs,
		       cond.id, cond.name, cond.category, cond.canonical_name
		ORDER BY r.confidence DESC
		LIMIT 10
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"symptom":        symptom,
		"min_confidence": minConfidence,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find related conditions: %w", err)
	}

	var triples []Triple
	for result.Next(ctx) {
		record := result.Record()

		symptomID, _ := record.Get("s.id")
		symptomName, _ := record.Get("s.name")
		symptomCategory, _ := record.Get("s.category")
		symptomCanonical, _ := record.Get("s.canonical_name")

		condID, _ := record.Get("cond.id")
		condName, _ := record.Get("cond.name")
		condCategory, _ := record.Get("cond.category")
		condCanonical, _ := record.Get("cond.canonical_name")

		predicate, _ := record.Get("r.type")
		confidence, _ := record.Get("r.confidence")
		sourceDocs, _ := record.Get("r.source_docs")

		var sourceURLs []string
		if docs, ok := sourceDocs.([]interface{}); ok {
			for _, doc := range docs {
				if url, ok := doc.(string); ok {
					sourceURLs = append(sourceURLs, url)
				}
			}
		}

		triple := Triple{
			Subject: Entity{
				ID:            symptomID.(string),
				Name:          symptomName.(string),
				Category:      symptomCategory.(string),
				CanonicalName: symptomCanonical.(string),
			},
			Predicate: predicate.(string),
			Object: Entity{
				ID:            condID.(string),
				Name:          condName.(string),
				Category:      condCategory.(string),
				CanonicalName: condCanonical.(string),
			},
			Confidence: confidence.(float64),
			SourceURLs: sourceURLs,
		}

		triples = append(triples, triple)
	}

	if err = result.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return triples, nil
}

func (c *Client) GetEntityByName(ctx context.Context, name string) (*Entity, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
	defer session.Close(ctx)

	query := `
		MATCH (e:MedicalEntity)
		WHERE e.name = $name OR e.canonical_name = $name
		RETURN e.id, e.name, e.category, e.canonical_name
		LIMIT 1
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"name": name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	if result.Next(ctx) {
		record := result.Record()
		id, _ := record.Get("e.id")
		name, _ := record.Get("e.name")
		category, _ := record.Get("e.category")
		canonical, _ := record.Get("e.canonical_name")

		return &Entity{
			ID:            id.(string),
			Name:          name.(string),
			Category:      category.(string),
			CanonicalName: canonical.(string),
		}, nil
	}

	return nil, fmt.Errorf("entity not found: %s", name)
}

func (c *Client) GetAllEntities(ctx context.Context) ([]Entity, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: "neo4j"})
	defer session.Close(ctx)

	query := `
		MATCH (e:MedicalEntity)
		RETURN e.id, e.name, e.category, e.canonical_name
		ORDER BY e.name
	`

	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get all entities: %w", err)
	}

	var entities []Entity
	for result.Next(ctx) {
		record := result.Record()
		id, _ := record.Get("e.id")
		name, _ := record.Get("e.name")
		category, _ := record.Get("e.category")
		canonical, _ := record.Get("e.canonical_name")

		entities = append(entities, Entity{
			ID:            id.(string),
			Name:          name.(string),
			Category:      category.(string),
			CanonicalName: canonical.(string),
		})
	}

	if err = result.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return entities, nil
}
