package extract

import (
	"fmt"
	"strings"

	"archivum/internal/config"
)

// PromptVersion identifies the prompt contract below. Bump it whenever the
// wording or the response shape changes.
const PromptVersion = "entities-v1"

const systemPromptTemplate = `You extract a knowledge graph from heritage documents (letters, diaries, registers, photograph captions, oral history transcripts).

Extract EVERY entity mentioned in the text. Each entity has one type:
- person: a named individual
- place: a town, address, building, region or country
- event: something that happened (wedding, battle, emigration, baptism)
- object: a physical item (letter, photograph, medal, house)
- concept: anything else worth recording (an organisation, an occupation, an idea)

Rules:
- Write names with normal capitalization ("Marcel Ramet", not "MARCEL RAMET").
- When the same entity appears under several spellings or forms, return it once and list the other forms in "aliases".
- Give each entity a one-sentence "description" drawn only from the text.
- Put dated or factual attributes in "properties" (for example {"year": 1925}).
- Relationships connect two entities by their exact "name" values from your entity list.
- Prefer these relation types, in snake_case: %s. Use another snake_case verb phrase when none fits.
- "weight" is your confidence in the relationship, between 0 and 1.
- If nothing is found, return empty arrays.

Respond with JSON only, no prose and no markdown, in exactly this shape:
{
  "entities": [
    {"type": "person", "name": "...", "aliases": ["..."], "description": "...", "properties": {}}
  ],
  "relationships": [
    {"source": "...", "target": "...", "relationType": "...", "weight": 0.9, "properties": {}}
  ]
}`

func systemPrompt(vocabulary []string) string {
	if len(vocabulary) == 0 {
		vocabulary = config.DefaultVocabulary().Names()
	}
	return fmt.Sprintf(systemPromptTemplate, strings.Join(vocabulary, ", "))
}

func userPrompt(text string) string {
	return "Extract entities and relationships from this document:\n\n" + text
}
