// Package composer renders recipient profiles into the fixed system
// instructions and per-request user blocks sent to a text-generation
// provider. Every function here is pure: identical inputs give
// byte-identical prompts.
package composer

import (
	"fmt"
	"strings"

	"github.com/kalambet/giftgenius/internal/profile"
)

// Messages is a rendered prompt split by role.
type Messages struct {
	System string
	User   string
}

// Joined returns both blocks as one text, for providers without a system role.
func (m Messages) Joined() string {
	return m.System + "\n\n" + m.User
}

// GiftInput is everything the gift prompt depends on.
type GiftInput struct {
	Profile          profile.Profile
	AlreadySuggested []string
	UsedTagPairs     [][]string
}

const giftSchema = `{"gift_ideas":[{"emoji":"🎁","category":"Catégorie courte","title":"Titre précis","reasoning":"• puce 1\n• puce 2","price":"€ | €€ | €€€ | €€€€","tags_used":["Signal 1","Signal 2"]}]}`

var budgetLabels = map[string]string{
	profile.BudgetSmall:   "Petit (€ - moins de 30€)",
	profile.BudgetMedium:  "Moyen (€€ - 30-100€)",
	profile.BudgetHigh:    "Élevé (€€€ - 100-300€)",
	profile.BudgetPremium: "Premium (€€€€ - plus de 300€)",
}

var intentionLabels = map[string]string{
	profile.IntentionWow:     "Wow (impressionner)",
	profile.IntentionUseful:  "Utile (pratique)",
	profile.IntentionFun:     "Fun (amusant)",
	profile.IntentionLearn:   "Apprendre (éducatif)",
	profile.IntentionEmotion: "Émouvoir (émotion)",
}

// BuildGift renders the gift-idea prompt.
func BuildGift(in GiftInput, rules RuleSet) Messages {
	return Messages{
		System: giftSystem(in, rules),
		User:   giftUser(in.Profile, rules),
	}
}

func giftSystem(in GiftInput, rules RuleSet) string {
	var sb strings.Builder
	sb.WriteString("Tu es un \"Curator\" de Concept Store expert en cadeaux personnalisés.\n")

	if titles := nonBlank(in.AlreadySuggested); len(titles) > 0 {
		sb.WriteString("\n🚨 RÈGLE DE MÉMOIRE CRITIQUE 🚨\n")
		fmt.Fprintf(&sb, "Tu as déjà proposé les cadeaux suivants : [%s].\n", strings.Join(titles, ", "))
		sb.WriteString("Il est INTERDIT de proposer ces cadeaux à nouveau, ou des versions trop similaires. ")
		sb.WriteString("Si une idée ressemble à l'une d'elles, change radicalement d'angle (autre archétype, autre intérêt).\n")
	}

	if pairs := formatPairs(in.UsedTagPairs); pairs != "" {
		sb.WriteString("\n🔁 COMBINAISONS DÉJÀ EXPLOITÉES\n")
		fmt.Fprintf(&sb, "Ces paires de signaux ont déjà servi : %s. Construis tes idées sur d'autres combinaisons.\n", pairs)
	}

	sb.WriteString("\n🚨 RÈGLE DE DIVERSITÉ (ARCHÉTYPES) 🚨\n")
	fmt.Fprintf(&sb, "Couvre au moins %d archétypes différents parmi :\n", rules.MinArchetypes)
	for i, a := range rules.Archetypes {
		fmt.Fprintf(&sb, "%d. %s %s (%s)", i+1, a.Emoji, a.Name, a.Examples)
		if a.Max > 0 {
			fmt.Fprintf(&sb, " -> MAX %d", a.Max)
		}
		sb.WriteString(".\n")
	}

	sb.WriteString("\nSTRATÉGIE :\n")
	fmt.Fprintf(&sb, "- Chaque idée croise au moins %d champs distincts du profil (ex: RPG + Artisanat = Set de dés en pierre taillés main).\n", rules.MinSignals)
	sb.WriteString("- Si un intérêt est EXPERT, propose du matériel de niche ; jamais de kit ou de guide pour débutant.\n")
	if len(rules.Banned) > 0 {
		fmt.Fprintf(&sb, "- INTERDIT (cadeaux génériques sans effort) : %s.\n", strings.Join(rules.Banned, ", "))
	}
	sb.WriteString("- Aucun thème de la BLACKLIST ne doit apparaître dans une idée.\n")
	sb.WriteString("- reasoning : pas de phrases, uniquement des puces avec emojis.\n")
	sb.WriteString("- tags_used : au plus 2 libellés exacts du profil qui justifient l'idée.\n")

	sb.WriteString("\nFORMAT DE RÉPONSE :\n")
	sb.WriteString("Réponds uniquement avec du JSON brut, sans texte autour ni bloc markdown, conforme à ce schéma :\n")
	sb.WriteString(giftSchema)
	return sb.String()
}

func giftUser(p profile.Profile, rules RuleSet) string {
	var sb strings.Builder

	sb.WriteString("PROFIL :\n")
	fmt.Fprintf(&sb, "- %d ans, %s, %s\n", p.Age, orUnspecified(p.Relation), orUnspecified(p.Gender))
	sliders := p.Sliders()
	vibe := make([]string, len(sliders))
	for i, s := range sliders {
		vibe[i] = fmt.Sprintf("%s ↔ %s : %d%%", s.Left, s.Right, s.Value)
	}
	fmt.Fprintf(&sb, "- Vibe : %s\n", strings.Join(vibe, " | "))
	fmt.Fprintf(&sb, "- Budget : %s | Intention : %s\n", describe(p.Budget, budgetLabels), describe(p.Intention, intentionLabels))

	if len(p.Interests) > 0 {
		fmt.Fprintf(&sb, "\nINTÉRÊTS : %s\n", formatInterests(p.Interests))
	}

	if ctx := contextLines(p); len(ctx) > 0 {
		sb.WriteString("\nCONTEXTE :\n")
		sb.WriteString(strings.Join(ctx, "\n"))
		sb.WriteString("\n")
	}

	if bl := nonBlank(profile.Labels(p.Blacklist)); len(bl) > 0 {
		fmt.Fprintf(&sb, "\nBLACKLIST : %s\n", strings.Join(bl, ", "))
	}

	fmt.Fprintf(&sb, "\nGénère %d nouvelles pépites (DIFFÉRENTES de la liste d'exclusion).", rules.BatchSize)
	return sb.String()
}

func formatInterests(list []profile.Interest) string {
	parts := make([]string, 0, len(list))
	for _, in := range list {
		label := strings.TrimSpace(in.Label)
		if label == "" {
			continue
		}
		if in.Level == profile.LevelExpert {
			parts = append(parts, label+" (⭐⭐ EXPERT)")
		} else {
			parts = append(parts, label+" (Découverte)")
		}
	}
	return strings.Join(parts, ", ")
}

func contextLines(p profile.Profile) []string {
	sections := []struct {
		prefix string
		tags   []profile.Tag
	}{
		{"🔥 PROJETS", p.Projects},
		{"💢 IRRITANTS", p.Complaints},
		{"🛍️ MARQUES", p.TotemBrands},
		{"📍 VIE", p.LifeMoment},
		{"👥 RÔLE DANS LE GROUPE", p.GroupRole},
	}
	var lines []string
	for _, s := range sections {
		if labels := nonBlank(profile.Labels(s.tags)); len(labels) > 0 {
			lines = append(lines, fmt.Sprintf("%s : %s", s.prefix, strings.Join(labels, ", ")))
		}
	}
	if bp := strings.TrimSpace(p.BuyerProfile); bp != "" && bp != profile.Unspecified {
		lines = append(lines, "💳 STYLE ACHAT : "+bp)
	}
	return lines
}

func formatPairs(pairs [][]string) string {
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		labels := nonBlank(pair)
		if len(labels) == 0 {
			continue
		}
		parts = append(parts, "["+strings.Join(labels, " + ")+"]")
	}
	return strings.Join(parts, ", ")
}

func describe(v string, labels map[string]string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == profile.Unspecified {
		return "non précisé"
	}
	if l, ok := labels[v]; ok {
		return l
	}
	return v
}

func orUnspecified(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == profile.Unspecified {
		return "non précisé"
	}
	return v
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
