package composer

import (
	"fmt"
	"sort"
	"strings"
)

// TagTarget is how many suggestions the tag prompt asks for.
const TagTarget = 10

// TagInput is everything the tag-suggestion prompt depends on.
type TagInput struct {
	CurrentTags []string
	Sliders     map[string]int
	Ignored     []string
}

const tagSystem = `Tu es un expert en recommandation de loisirs.

OBJECTIF :
Suggère %d NOUVEAUX tags d'intérêts adjacents (Pensée Latérale).

CALIBRAGE DU NIVEAU DE DÉTAIL :
Vise le "Niveau 2 : L'Activité Concrète".
❌ NIVEAU 1 (trop abstrait) : pas de concepts flous comme "Aventure", "Création", "Sport", "Culture", "Bien-être".
❌ NIVEAU 3 (trop niche) : pas de sous-catégories comme "Yoga Ashtanga", "Cuisine Moléculaire", "Jazz des années 50".
✅ NIVEAU 2 (cible) : des activités ou sujets tangibles comme "Yoga", "Cuisine", "Jazz", "Poterie", "Astronomie", "Randonnée".

LOGIQUE D'ASSOCIATION :
Trouve des "Cousins" : des activités différentes qui plaisent au même type de cerveau.
- Si "Jeux Vidéo" -> "Jeux de Société", "Programmation", "Cinéma".
- Si "Randonnée" -> "Escalade", "Jardinage", "Photographie".

FORMAT DE RÉPONSE :
Réponds uniquement avec du JSON brut : {"suggested_tags": ["Activité 1", "Activité 2"]}`

// BuildTags renders the tag-suggestion prompt. Slider keys are sorted so the
// output does not depend on map order.
func BuildTags(in TagInput) Messages {
	var sb strings.Builder

	tags := nonBlank(in.CurrentTags)
	if len(tags) > 0 {
		fmt.Fprintf(&sb, "TAGS ACTUELS : %s\n", strings.Join(tags, ", "))
	} else {
		sb.WriteString("TAGS ACTUELS : aucun\n")
	}

	if len(in.Sliders) > 0 {
		keys := make([]string, 0, len(in.Sliders))
		for k := range in.Sliders {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%d", k, in.Sliders[k])
		}
		fmt.Fprintf(&sb, "SLIDERS : %s\n", strings.Join(parts, ", "))
	}

	if ignored := nonBlank(in.Ignored); len(ignored) > 0 {
		sb.WriteString("\n❌ TAGS DÉJÀ PROPOSÉS OU IGNORÉS (STRICTEMENT INTERDIT) :\n")
		fmt.Fprintf(&sb, "Ne suggère pas ces tags ni leurs synonymes exacts : %s\n", strings.Join(ignored, ", "))
	}

	fmt.Fprintf(&sb, "\nDonne exactement %d tags, aucun déjà présent dans les tags actuels.", TagTarget)

	return Messages{
		System: fmt.Sprintf(tagSystem, TagTarget),
		User:   sb.String(),
	}
}
