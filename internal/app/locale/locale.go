// Package locale holds the English and Dutch string tables feeding the
// prompt templates. One map keyed by language tag, one template function
// per concern on the caller side; no per-language code paths.
package locale

import "golang.org/x/text/language"

// Strings is the full set of localized fragments used by the prompt
// builder and the summary compactor.
type Strings struct {
	// Narrator prompt fragments.
	NarratorIntro     string
	NarrationLanguage string

	// Section headers for the user prompt.
	SectionSummary   string
	SectionRecent    string
	SectionLastScene string
	SectionAction    string
	SectionState     string
	SectionMechanics string
	SectionRules     string

	// Summary-compaction prompt fragments.
	SummaryIntro    string
	SummaryRules    string
	SummaryPrevious string
	SummaryNew      string
	SummaryState    string
	SummaryReturn   string
}

var supported = []language.Tag{language.English, language.Dutch}

var tables = map[language.Tag]Strings{
	language.English: {
		NarratorIntro:     "You are a narrative co-pilot for a turn-based fantasy adventure.",
		NarrationLanguage: "Narrate in English, 2nd person (\"you...\").",

		SectionSummary:   "CANON SUMMARY (compact memory of prior story)",
		SectionRecent:    "RECENT EXCHANGES (oldest first)",
		SectionLastScene: "LAST SCENE",
		SectionAction:    "PLAYER ACTION",
		SectionState:     "GAME STATE SNAPSHOT",
		SectionMechanics: "MECHANICS INPUTS",
		SectionRules:     "INSTRUCTIONS",

		SummaryIntro: "You compress an ongoing interactive story into a tight memory for continuity.",
		SummaryRules: "Rules:\n" +
			"- Retain only durable facts: setting, important NPCs, goals, discovered clues, promises, unresolved threads, inventory/conditions.\n" +
			"- Do not retell prose. Prefer bullet-like, compact sentences.\n" +
			"- Merge with the previous summary, extend the existing bullet lists and do not remove earlier items.",
		SummaryPrevious: "PREVIOUS SUMMARY (may be empty)",
		SummaryNew:      "NEW EXCHANGES TO FOLD IN",
		SummaryState:    "CURRENT STATE (hints; optional)",
		SummaryReturn:   "Return only the updated summary.",
	},
	language.Dutch: {
		NarratorIntro:     "Je bent een verhalende co-piloot voor een turn-based fantasy avontuur.",
		NarrationLanguage: "Vertel in het Nederlands, 2de persoon (\"je...\").",

		SectionSummary:   "VERHAAL SAMENVATTING (compact geheugen van eerder verhaal)",
		SectionRecent:    "RECENTE UITWISSELINGEN (oudste eerst)",
		SectionLastScene: "LAATSTE SCÈNE",
		SectionAction:    "SPELER ACTIE",
		SectionState:     "SPELSTATUS SNAPSHOT",
		SectionMechanics: "MECHANICS INPUTS",
		SectionRules:     "INSTRUCTIES",

		SummaryIntro: "Je comprimeert een lopend interactief verhaal tot een compact geheugen voor continuïteit.",
		SummaryRules: "Regels:\n" +
			"- Behoud alleen duurzame feiten: setting, belangrijke NPCs, doelen, ontdekte aanwijzingen, beloftes, onopgeloste threads, inventaris/condities.\n" +
			"- Vertel het verhaal niet opnieuw. Gebruik korte, compacte zinnen in bullets.\n" +
			"- Voeg samen met vorige samenvatting, breid bestaande bullet lijsten uit en verwijder geen eerdere items.",
		SummaryPrevious: "VORIGE SAMENVATTING (kan leeg zijn)",
		SummaryNew:      "NIEUWE UITWISSELINGEN OM IN TE VOUWEN",
		SummaryState:    "HUIDIGE STATUS (hints; optioneel)",
		SummaryReturn:   "Geef alleen de bijgewerkte samenvatting terug.",
	},
}

var matcher = language.NewMatcher(supported)

// For resolves a BCP 47 tag ("en", "nl", "nl-BE", ...) to its string
// table, falling back to English for anything unknown.
func For(tag string) Strings {
	t, err := language.Parse(tag)
	if err != nil {
		return tables[language.English]
	}
	_, i, _ := matcher.Match(t)
	return tables[supported[i]]
}
