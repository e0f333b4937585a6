package composer

// Archetype is one gift-category bucket a batch must diversify across.
type Archetype struct {
	Emoji    string
	Name     string
	Examples string
	// Max caps how many ideas of this archetype a batch may hold; 0 means
	// no cap.
	Max int
}

// RuleSet carries the editorial rules rendered into the gift system block.
type RuleSet struct {
	Archetypes    []Archetype
	MinArchetypes int
	MinSignals    int
	BatchSize     int
	Banned        []string
}

// DefaultRules returns the fixed rule set used for gift generation.
func DefaultRules() RuleSet {
	return RuleSet{
		Archetypes: []Archetype{
			{Emoji: "📦", Name: "OBJET DURABLE", Examples: "Tech, Outil, Déco"},
			{Emoji: "🎟️", Name: "EXPÉRIENCE", Examples: "Atelier, Sortie, Cours"},
			{Emoji: "🍪", Name: "CONSOMMABLE", Examples: "Food, Soin, Kit DIY"},
			{Emoji: "📚", Name: "SAVOIR", Examples: "Livre, Revue", Max: 1},
			{Emoji: "🧘", Name: "SERVICE", Examples: "Abonnement, Massage"},
		},
		MinArchetypes: 4,
		MinSignals:    2,
		BatchSize:     5,
		Banned:        []string{"cartes cadeaux", "mugs basiques", "t-shirts à slogan"},
	}
}
