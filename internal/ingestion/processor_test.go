package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanHTMLStripsChrome(t *testing.T) {
	p := &Processor{chunkSize: 1000, chunkOverlap: 100}

	html := `<html><head><title>Flu</title><style>body{}</style></head>
	<body><nav>menu</nav><p>Influenza is a viral   infection.</p><footer>legal</footer></body></html>`

	text := p.cleanHTML(html)
	assert.Equal(t, "Influenza is a viral infection.", text)
}

func TestExtractTitleFallsBackToH1(t *testing.T) {
	p := &Processor{}

	assert.Equal(t, "Flu Guide", p.extractTitle("<html><head><title>Flu Guide</title></head><body></body></html>"))
	assert.Equal(t, "Fevers", p.extractTitle("<html><body><h1>Fevers</h1></body></html>"))
	assert.Equal(t, "Untitled", p.extractTitle("<html><body><p>text</p></body></html>"))
}

func TestExtractCategory(t *testing.T) {
	p := &Processor{}

	assert.Equal(t, "medications", p.extractCategory("example.com/aspirin", "Aspirin dosage information"))
	assert.Equal(t, "conditions", p.extractCategory("example.com", "Diabetes is a chronic condition"))
	assert.Equal(t, "general", p.extractCategory("example.com", "Drink plenty of water"))
}

func TestExtractSourceType(t *testing.T) {
	p := &Processor{}

	assert.Equal(t, "government", p.extractSourceType("https://medlineplus.gov/flu"))
	assert.Equal(t, "medical_journal", p.extractSourceType("https://pubmed.ncbi.nlm.nih.gov/12345"))
	assert.Equal(t, "health_website", p.extractSourceType("https://www.mayoclinic.org/flu"))
	assert.Equal(t, "website", p.extractSourceType("https://example.com/flu"))
}

func TestChunkTextRespectsSizeAndOverlap(t *testing.T) {
	p := &Processor{chunkSize: 100, chunkOverlap: 50}

	var words []string
	for i := 0; i < 60; i++ {
		words = append(words, "word")
	}
	text := ""
	for i, w := range words {
		if i > 0 {
			text += " "
		}
		text += w
	}

	chunks := p.chunkText(text)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk)
	}
}

func TestChunkTextEmptyInput(t *testing.T) {
	p := &Processor{chunkSize: 100, chunkOverlap: 10}
	assert.Nil(t, p.chunkText("   "))
}

func TestGenerateIDIsStable(t *testing.T) {
	assert.Equal(t, generateID("medlineplus.gov/flu"), generateID("medlineplus.gov/flu"))
	assert.NotEqual(t, generateID("a"), generateID("b"))
}
