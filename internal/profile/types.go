package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Unspecified is the sentinel used by budget, intention and buyer profile
// when the giver has no opinion.
const Unspecified = "ne-se-prononce-pas"

// Budget values understood by the prompt formatter.
const (
	BudgetSmall   = "petit"
	BudgetMedium  = "moyen"
	BudgetHigh    = "eleve"
	BudgetPremium = "premium"
)

// Intention values understood by the prompt formatter.
const (
	IntentionWow     = "wow"
	IntentionUseful  = "utile"
	IntentionFun     = "fun"
	IntentionLearn   = "apprendre"
	IntentionEmotion = "emouvoir"
)

// Level is the expertise attached to an Interest.
type Level string

const (
	LevelCasual Level = "casual"
	LevelExpert Level = "expert"
)

// UnmarshalJSON accepts the legacy "none" level and the empty string and
// maps both to casual.
func (l *Level) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelExpert:
		*l = LevelExpert
	case LevelCasual, "none", "":
		*l = LevelCasual
	default:
		return fmt.Errorf("unknown interest level %q", s)
	}
	return nil
}

// Interest is a labelled passion with an expertise level.
type Interest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Level Level  `json:"level"`
}

// Tag is a labelled piece of information about the recipient.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Profile describes the gift recipient. JSON names follow the web client.
type Profile struct {
	// Identity
	Age      int    `json:"age"`
	Gender   string `json:"genre"`
	Relation string `json:"relation"`

	// Psychology, each slider in [0,100].
	PragmaticSentimental int `json:"pragmatiqueSentimental"`
	RoutineOriginality   int `json:"routineOriginalite"`
	CalmEnergy           int `json:"calmeEnergie"`
	SeriousFun           int `json:"serieuxFun"`
	ObjectExperience     int `json:"objetExperience"`

	Interests []Interest `json:"interets"`

	// Social context
	LifeMoment  []Tag `json:"momentDeVie"`
	GroupRole   []Tag `json:"roleGroupe"`
	TotemBrands []Tag `json:"marquesTotem"`

	// Behaviour
	BuyerProfile string `json:"profilAcheteur"`
	Projects     []Tag  `json:"projets"`
	Complaints   []Tag  `json:"plaintes"`

	Blacklist []Tag `json:"blacklist"`

	Budget    string `json:"budget"`
	Intention string `json:"intention"`
}

// GiftIdea is one generated suggestion. ID is assigned locally.
type GiftIdea struct {
	ID        string   `json:"id"`
	Emoji     string   `json:"emoji"`
	Category  string   `json:"category"`
	Title     string   `json:"title"`
	Reasoning string   `json:"reasoning"`
	Price     string   `json:"price"`
	TagsUsed  []string `json:"tags_used,omitempty"`
}

// Slider is one bipolar psychology axis.
type Slider struct {
	Key   string
	Left  string
	Right string
	Value int
}

// Sliders returns the five axes in fixed order.
func (p Profile) Sliders() []Slider {
	return []Slider{
		{Key: "pragmatiqueSentimental", Left: "Pragmatique", Right: "Sentimental", Value: p.PragmaticSentimental},
		{Key: "routineOriginalite", Left: "Routine", Right: "Originalité", Value: p.RoutineOriginality},
		{Key: "calmeEnergie", Left: "Calme", Right: "Énergie", Value: p.CalmEnergy},
		{Key: "serieuxFun", Left: "Sérieux", Right: "Fun", Value: p.SeriousFun},
		{Key: "objetExperience", Left: "Objet", Right: "Expérience", Value: p.ObjectExperience},
	}
}

// SliderMap returns the sliders keyed by their wire name.
func (p Profile) SliderMap() map[string]int {
	out := make(map[string]int, 5)
	for _, s := range p.Sliders() {
		out[s.Key] = s.Value
	}
	return out
}

// Default returns the profile a fresh session starts with.
func Default() Profile {
	return Profile{
		Age:                  28,
		Gender:               "non-binaire",
		Relation:             "ami",
		PragmaticSentimental: 40,
		RoutineOriginality:   65,
		CalmEnergy:           70,
		SeriousFun:           60,
		ObjectExperience:     55,
		Interests:            []Interest{},
		LifeMoment:           []Tag{},
		GroupRole:            []Tag{},
		TotemBrands:          []Tag{},
		BuyerProfile:         Unspecified,
		Projects:             []Tag{},
		Complaints:           []Tag{},
		Blacklist:            []Tag{},
		Budget:               Unspecified,
		Intention:            Unspecified,
	}
}

// Validate checks numeric ranges. Enum-like strings are not enforced.
func (p Profile) Validate() error {
	if p.Age < 0 || p.Age > 130 {
		return fmt.Errorf("age %d out of range [0,130]", p.Age)
	}
	for _, s := range p.Sliders() {
		if s.Value < 0 || s.Value > 100 {
			return fmt.Errorf("slider %s = %d out of range [0,100]", s.Key, s.Value)
		}
	}
	return nil
}

// Normalize fills empty enum fields with the sentinel and replaces nil
// collections with empty ones so the profile serialises as the client expects.
func (p Profile) Normalize() Profile {
	if p.Budget == "" {
		p.Budget = Unspecified
	}
	if p.Intention == "" {
		p.Intention = Unspecified
	}
	if p.BuyerProfile == "" {
		p.BuyerProfile = Unspecified
	}
	if p.Interests == nil {
		p.Interests = []Interest{}
	}
	for _, g := range Groups {
		if p.Group(g) == nil {
			p = p.SetGroup(g, []Tag{})
		}
	}
	return p
}

// Tag group names, matching the JSON field names.
const (
	GroupLifeMoment  = "momentDeVie"
	GroupRole        = "roleGroupe"
	GroupTotemBrands = "marquesTotem"
	GroupProjects    = "projets"
	GroupComplaints  = "plaintes"
	GroupBlacklist   = "blacklist"
)

// Groups lists every tag collection of a Profile.
var Groups = []string{GroupLifeMoment, GroupRole, GroupTotemBrands, GroupProjects, GroupComplaints, GroupBlacklist}

// ValidGroup reports whether name designates a tag collection.
func ValidGroup(name string) bool {
	for _, g := range Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Group returns the tag collection called name, or nil for an unknown name.
func (p Profile) Group(name string) []Tag {
	switch name {
	case GroupLifeMoment:
		return p.LifeMoment
	case GroupRole:
		return p.GroupRole
	case GroupTotemBrands:
		return p.TotemBrands
	case GroupProjects:
		return p.Projects
	case GroupComplaints:
		return p.Complaints
	case GroupBlacklist:
		return p.Blacklist
	}
	return nil
}

// SetGroup returns a copy of p with the named collection replaced.
// Unknown names leave p unchanged.
func (p Profile) SetGroup(name string, tags []Tag) Profile {
	switch name {
	case GroupLifeMoment:
		p.LifeMoment = tags
	case GroupRole:
		p.GroupRole = tags
	case GroupTotemBrands:
		p.TotemBrands = tags
	case GroupProjects:
		p.Projects = tags
	case GroupComplaints:
		p.Complaints = tags
	case GroupBlacklist:
		p.Blacklist = tags
	}
	return p
}

// Labels returns the labels of tags in order.
func Labels(tags []Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.Label
	}
	return out
}

// InterestLabels returns the labels of interests in order.
func InterestLabels(list []Interest) []string {
	out := make([]string, len(list))
	for i, in := range list {
		out[i] = in.Label
	}
	return out
}
