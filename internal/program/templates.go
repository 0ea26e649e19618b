package program

// TemplateBlock is one row of an event-type template. GameSlug references
// the games_library catalog and is resolved to an id at apply time.
type TemplateBlock struct {
	BlockType       string
	Title           string
	DurationMinutes int
	GameSlug        string
}

// Templates maps event types to ready-made programs.
var Templates = map[string][]TemplateBlock{
	"silvestr": {
		{BlockType: "custom", Title: "Privitani hostu", DurationMinutes: 15},
		{BlockType: "game", Title: "Party Bingo", DurationMinutes: 15, GameSlug: "bingo"},
		{BlockType: "game", Title: "Hot Take", DurationMinutes: 20, GameSlug: "hot-take"},
		{BlockType: "custom", Title: "Odpocitavani pulnoci", DurationMinutes: 10},
		{BlockType: "message_wall", Title: "Novorocni prani", DurationMinutes: 15},
	},
	"birthday": {
		{BlockType: "custom", Title: "Privitani hostu", DurationMinutes: 15},
		{BlockType: "game", Title: "Kdo jsem ted?", DurationMinutes: 20, GameSlug: "who-am-i"},
		{BlockType: "game", Title: "Dve pravdy, jedna lez", DurationMinutes: 20, GameSlug: "two-truths"},
		{BlockType: "game", Title: "Kviz o oslavenci", DurationMinutes: 15, GameSlug: "quiz"},
		{BlockType: "slideshow", Title: "Fotky z minulosti", DurationMinutes: 10},
	},
	"company": {
		{BlockType: "custom", Title: "Uvod a agenda", DurationMinutes: 10},
		{BlockType: "game", Title: "Team Bingo", DurationMinutes: 15, GameSlug: "bingo"},
		{BlockType: "game", Title: "Kdo jsem ted?", DurationMinutes: 20, GameSlug: "who-am-i"},
		{BlockType: "game", Title: "Kreslici souboj", DurationMinutes: 20, GameSlug: "drawing-battle"},
		{BlockType: "message_wall", Title: "Zpetna vazba", DurationMinutes: 10},
	},
	"reunion": {
		{BlockType: "custom", Title: "Privitani a predstaveni", DurationMinutes: 15},
		{BlockType: "game", Title: "Dve pravdy, jedna lez", DurationMinutes: 20, GameSlug: "two-truths"},
		{BlockType: "game", Title: "Kdo jsem ted?", DurationMinutes: 20, GameSlug: "who-am-i"},
		{BlockType: "slideshow", Title: "Spolecne vzpominky", DurationMinutes: 15},
		{BlockType: "message_wall", Title: "Vzkazy a postrehy", DurationMinutes: 10},
	},
	"custom": {},
}
