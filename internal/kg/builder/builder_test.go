package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicateForSymptomCondition(t *testing.T) {
	assert.Equal(t, "INDICATES", predicateFor("symptoms", "conditions"))
	assert.Equal(t, "INDICATES", predicateFor("conditions", "symptoms"))
}

func TestPredicateForConditionMedication(t *testing.T) {
	assert.Equal(t, "TREATED_BY", predicateFor("conditions", "medications"))
	assert.Equal(t, "TREATED_BY", predicateFor("medications", "conditions"))
}

func TestPredicateForSameCategory(t *testing.T) {
	assert.Equal(t, "CO_OCCURS_WITH", predicateFor("symptoms", "symptoms"))
}

func TestPredicateForUnmappedPair(t *testing.T) {
	assert.Equal(t, "", predicateFor("medications", "body_parts"))
}

func TestEntityIDForIsStable(t *testing.T) {
	assert.Equal(t, entityIDFor("fever"), entityIDFor("fever"))
	assert.NotEqual(t, entityIDFor("fever"), entityIDFor("cough"))
}
