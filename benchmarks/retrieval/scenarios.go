// ABOUTME: Scenario data for the retrieval benchmarks
// ABOUTME: Each scenario seeds a fresh stash and asks queries with known answers

package retrieval

// Mode selects which search path a query exercises
type Mode string

const (
	ModeSemantic Mode = "semantic"
	ModeKeyword  Mode = "keyword"
)

// Scenario is one benchmark: a set of saved notes and the queries run against them
type Scenario struct {
	ID          string
	Name        string
	Description string
	Items       []string
	Queries     []Query
}

// Query is a search with its ground truth. Expected and Forbidden hold
// substrings that identify saved notes.
type Query struct {
	Text      string
	Mode      Mode
	Limit     int
	Expected  []string // notes that MUST be retrieved
	Forbidden []string // notes that MUST NOT be retrieved
}

// QueryResult is the evaluation of one query
type QueryResult struct {
	Query          string   `json:"query"`
	Mode           Mode     `json:"mode"`
	Recall         float64  `json:"recall"`
	ReciprocalRank float64  `json:"reciprocal_rank"`
	Purity         float64  `json:"purity"`
	Retrieved      []string `json:"retrieved"`
	Skipped        bool     `json:"skipped,omitempty"`
	Detail         string   `json:"detail"`
}

// Result is the outcome of a scenario
type Result struct {
	ScenarioID   string        `json:"scenario_id"`
	ScenarioName string        `json:"scenario_name"`
	Recall       float64       `json:"recall"`
	MRR          float64       `json:"mrr"`
	Purity       float64       `json:"purity"`
	OverallScore float64       `json:"overall_score"`
	Status       string        `json:"status"` // PASS, FAIL, or SKIP
	Queries      []QueryResult `json:"queries"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// KeywordRecall checks substring search over short notes
func KeywordRecall() Scenario {
	return Scenario{
		ID:          "kw",
		Name:        "Keyword recall",
		Description: "Case-insensitive substring search finds every note containing the word, newest first",
		Items: []string{
			"Renew passport before the June trip",
			"Postgres index tuning: check pg_stat_user_indexes",
			"Buy a new bike chain",
			"Read the POSTGRES vacuum docs",
			"Call the dentist on Monday",
		},
		Queries: []Query{
			{
				Text:      "postgres",
				Mode:      ModeKeyword,
				Limit:     10,
				Expected:  []string{"index tuning", "vacuum docs"},
				Forbidden: []string{"bike chain", "passport"},
			},
			{
				Text:     "dentist",
				Mode:     ModeKeyword,
				Limit:    10,
				Expected: []string{"Call the dentist"},
			},
			{
				Text:      "50%_off",
				Mode:      ModeKeyword,
				Limit:     10,
				Forbidden: []string{"passport", "bike chain", "dentist", "index tuning", "vacuum docs"},
			},
		},
	}
}

// SemanticParaphrase asks questions that share no words with the answer
func SemanticParaphrase() Scenario {
	return Scenario{
		ID:          "sem",
		Name:        "Semantic paraphrase",
		Description: "Semantic search ranks the note that answers a reworded question first",
		Items: []string{
			"Renew passport before the June trip",
			"Postgres index tuning: check pg_stat_user_indexes",
			"Buy a new bike chain",
			"Grandma's lasagna recipe uses ricotta and fresh basil",
			"Call the dentist on Monday",
		},
		Queries: []Query{
			{
				Text:     "travel documents I need to sort out",
				Mode:     ModeSemantic,
				Limit:    3,
				Expected: []string{"passport"},
			},
			{
				Text:     "making the database faster",
				Mode:     ModeSemantic,
				Limit:    3,
				Expected: []string{"index tuning"},
			},
			{
				Text:     "what to cook for a family dinner",
				Mode:     ModeSemantic,
				Limit:    3,
				Expected: []string{"lasagna"},
			},
		},
	}
}

// MixedModes compares both search paths on the same notes
func MixedModes() Scenario {
	return Scenario{
		ID:          "mix",
		Name:        "Mixed modes",
		Description: "Keyword and semantic search agree on a note that matches literally and by meaning",
		Items: []string{
			"Article: how Go schedules goroutines across OS threads",
			"Shopping list: eggs, milk, coffee beans",
			"Go blog post on range-over-func iterators",
			"Reminder: water the plants",
		},
		Queries: []Query{
			{
				Text:      "goroutines",
				Mode:      ModeKeyword,
				Limit:     5,
				Expected:  []string{"schedules goroutines"},
				Forbidden: []string{"Shopping list"},
			},
			{
				Text:     "concurrency in the Go runtime",
				Mode:     ModeSemantic,
				Limit:    2,
				Expected: []string{"schedules goroutines"},
			},
		},
	}
}

// AllScenarios returns every built-in scenario
func AllScenarios() []Scenario {
	return []Scenario{KeywordRecall(), SemanticParaphrase(), MixedModes()}
}

// ScenarioByID finds a built-in scenario
func ScenarioByID(id string) (Scenario, bool) {
	for _, s := range AllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
